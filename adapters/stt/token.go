package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/satriahrh/swara/domain/repositories"
)

const (
	// tokenSafetyMargin is subtracted from a token's expiry before handing
	// it out: the recognition call itself may take several seconds and a
	// token must not expire mid-flight.
	tokenSafetyMargin = 5 * time.Minute

	// defaultTokenLifetime applies when the OAuth response omits expires_at.
	defaultTokenLifetime = 1800 * time.Second
)

// bearerToken is a short-lived credential together with its expiry instant.
// A refresh always creates a new bearerToken and replaces the old one; a
// token handed out for use is never mutated in place.
type bearerToken struct {
	value     string
	expiresAt time.Time
}

func (t bearerToken) usable(now time.Time) bool {
	return t.value != "" && now.Before(t.expiresAt.Add(-tokenSafetyMargin))
}

// tokenSource holds at most one outstanding bearer token and is the single
// source of truth for whether it is still usable. Concurrent cold-cache
// callers share one in-flight OAuth request instead of issuing duplicates.
type tokenSource struct {
	oauthURL   string
	authKey    string
	scope      string
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time

	mu      sync.Mutex
	current bearerToken
	group   singleflight.Group
}

func newTokenSource(config SaluteConfig, httpClient *http.Client, logger *zap.Logger) *tokenSource {
	return &tokenSource{
		oauthURL:   config.OAuthURL,
		authKey:    config.AuthKey,
		scope:      config.Scope,
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

// Token returns the cached bearer token while it is still inside its safety
// margin, refreshing it through the OAuth endpoint otherwise. A failed
// refresh surfaces as *repositories.AuthError and is not retried here.
func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	if t.current.usable(t.now()) {
		value := t.current.value
		t.mu.Unlock()
		return value, nil
	}
	t.mu.Unlock()

	value, err, _ := t.group.Do("refresh", func() (interface{}, error) {
		// A caller that queued behind an in-flight refresh finds the
		// fresh token here without a second OAuth call.
		t.mu.Lock()
		if t.current.usable(t.now()) {
			value := t.current.value
			t.mu.Unlock()
			return value, nil
		}
		t.mu.Unlock()

		return t.refresh(ctx)
	})
	if err != nil {
		return "", err
	}

	return value.(string), nil
}

// Invalidate clears the cached token so the next Token call refreshes.
func (t *tokenSource) Invalidate() {
	t.mu.Lock()
	t.current = bearerToken{}
	t.mu.Unlock()
}

type oauthResponse struct {
	AccessToken string `json:"access_token"`
	// ExpiresAt is the issued token's lifetime in seconds.
	ExpiresAt int64 `json:"expires_at"`
}

func (t *tokenSource) refresh(ctx context.Context) (string, error) {
	form := url.Values{"scope": {t.scope}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &repositories.AuthError{Op: "token request", Err: err}
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+t.authKey)
	req.Header.Set("RqUID", uuid.NewString())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", &repositories.AuthError{Op: "token request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &repositories.AuthError{Op: "token response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &repositories.AuthError{
			Op:  "token request",
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var parsed oauthResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &repositories.AuthError{Op: "token response", Err: err}
	}

	if parsed.AccessToken == "" {
		return "", &repositories.AuthError{
			Op:  "token response",
			Err: fmt.Errorf("response carries no access token"),
		}
	}

	lifetime := defaultTokenLifetime
	if parsed.ExpiresAt > 0 {
		lifetime = time.Duration(parsed.ExpiresAt) * time.Second
	}

	issued := bearerToken{
		value:     parsed.AccessToken,
		expiresAt: t.now().Add(lifetime),
	}

	t.mu.Lock()
	t.current = issued
	t.mu.Unlock()

	t.logger.Debug("Bearer token refreshed", zap.Time("expiresAt", issued.expiresAt))

	return issued.value, nil
}
