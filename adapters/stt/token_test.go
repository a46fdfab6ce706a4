package stt

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/swara/domain/repositories"
)

func newTestTokenSource(t *testing.T, handler http.HandlerFunc) *tokenSource {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return newTokenSource(SaluteConfig{
		AuthKey:  "dGVzdC1rZXk=",
		Scope:    defaultScope,
		OAuthURL: server.URL,
	}, server.Client(), zaptest.NewLogger(t))
}

func TestTokenCachedWithinSafetyMargin(t *testing.T) {
	var calls int32
	tokens := newTestTokenSource(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"access_token":"cached","expires_at":1800}`))
	})

	first, err := tokens.Token(context.Background())
	if err != nil {
		t.Fatalf("first Token failed: %v", err)
	}

	second, err := tokens.Token(context.Background())
	if err != nil {
		t.Fatalf("second Token failed: %v", err)
	}

	if first != second {
		t.Errorf("Expected identical cached value, got %q then %q", first, second)
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected 1 OAuth request, got %d", got)
	}
}

func TestTokenRefreshReplacesCache(t *testing.T) {
	var calls int32
	tokens := newTestTokenSource(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Write([]byte(`{"access_token":"first","expires_at":1800}`))
			return
		}
		w.Write([]byte(`{"access_token":"second","expires_at":1800}`))
	})

	if _, err := tokens.Token(context.Background()); err != nil {
		t.Fatalf("Token failed: %v", err)
	}

	tokens.now = func() time.Time { return time.Now().Add(time.Hour) }

	value, err := tokens.Token(context.Background())
	if err != nil {
		t.Fatalf("Token after expiry failed: %v", err)
	}

	if value != "second" {
		t.Errorf("Expected refreshed token, got %q", value)
	}

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("Expected exactly one refresh, got %d OAuth requests", got)
	}
}

func TestTokenDefaultLifetime(t *testing.T) {
	tokens := newTestTokenSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"no-lifetime"}`))
	})

	if _, err := tokens.Token(context.Background()); err != nil {
		t.Fatalf("Token failed: %v", err)
	}

	tokens.mu.Lock()
	expiresAt := tokens.current.expiresAt
	tokens.mu.Unlock()

	want := time.Now().Add(defaultTokenLifetime)
	if expiresAt.Sub(want).Abs() > 5*time.Second {
		t.Errorf("Expected default 1800s lifetime, got expiry %v", expiresAt)
	}
}

func TestTokenInvalidate(t *testing.T) {
	var calls int32
	tokens := newTestTokenSource(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"access_token":"tok","expires_at":1800}`))
	})

	if _, err := tokens.Token(context.Background()); err != nil {
		t.Fatalf("Token failed: %v", err)
	}

	tokens.Invalidate()

	if _, err := tokens.Token(context.Background()); err != nil {
		t.Fatalf("Token after invalidate failed: %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("Expected a fresh OAuth request after Invalidate, got %d", got)
	}
}

func TestTokenMissingAccessToken(t *testing.T) {
	tokens := newTestTokenSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"expires_at":1800}`))
	})

	_, err := tokens.Token(context.Background())

	var authErr *repositories.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Expected AuthError for missing access token, got %T: %v", err, err)
	}
}

func TestTokenEndpointFailure(t *testing.T) {
	tokens := newTestTokenSource(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	_, err := tokens.Token(context.Background())

	var authErr *repositories.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Expected AuthError for non-2xx response, got %T: %v", err, err)
	}
}

func TestTokenConcurrentColdCacheSingleRefresh(t *testing.T) {
	var calls int32
	tokens := newTestTokenSource(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`{"access_token":"shared","expires_at":1800}`))
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := tokens.Token(context.Background())
			if err != nil {
				t.Errorf("concurrent Token failed: %v", err)
				return
			}
			if value != "shared" {
				t.Errorf("Expected shared token, got %q", value)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected concurrent cold-cache callers to share one refresh, got %d", got)
	}
}
