package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/swara/domain/entities"
	"github.com/satriahrh/swara/domain/repositories"
)

const (
	defaultOAuthURL     = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	defaultRecognizeURL = "https://smartspeech.sber.ru/rest/v1/speech:recognize"
	defaultScope        = "SALUTE_SPEECH_PERS"

	// recognizeContentType is the one encoding the recognition endpoint
	// accepts; the audio converter produces it upstream.
	recognizeContentType = "audio/ogg;codecs=opus"

	// requestTimeout bounds both the OAuth and the recognition call.
	requestTimeout = 30 * time.Second
)

// SaluteConfig holds configuration for the SaluteSpeech adapter
// Required fields:
// - AuthKey: base64-encoded client credential, sent as the Basic auth header on OAuth requests
// Optional fields with defaults:
// - Scope: OAuth scope parameter (default: "SALUTE_SPEECH_PERS")
// - OAuthURL: token issuance endpoint
// - RecognizeURL: recognition endpoint
type SaluteConfig struct {
	AuthKey      string
	Scope        string
	OAuthURL     string
	RecognizeURL string
}

// ValidateSaluteConfig validates the SaluteConfig
func ValidateSaluteConfig(config SaluteConfig) error {
	if config.AuthKey == "" {
		return fmt.Errorf("salute auth key is required")
	}
	return nil
}

// NewSaluteConfigFromEnv creates a SaluteConfig from environment variables.
// An absent SALUTE_AUTH_KEY makes the resulting config fail validation,
// which callers treat as "transcription disabled" rather than an error.
func NewSaluteConfigFromEnv() SaluteConfig {
	return SaluteConfig{
		AuthKey:      os.Getenv("SALUTE_AUTH_KEY"),
		Scope:        os.Getenv("SALUTE_SCOPE"),
		OAuthURL:     os.Getenv("SALUTE_OAUTH_URL"),
		RecognizeURL: os.Getenv("SALUTE_RECOGNIZE_URL"),
	}
}

// SaluteSpeechToText implements SpeechToText against the SaluteSpeech REST
// API. It owns the bearer-token cache and the single permitted retry on a
// rejected token.
type SaluteSpeechToText struct {
	recognizeURL string
	httpClient   *http.Client
	tokens       *tokenSource
	logger       *zap.Logger
}

// Ensure SaluteSpeechToText implements the SpeechToText interface
var _ repositories.SpeechToText = (*SaluteSpeechToText)(nil)

// NewSaluteSpeechToText creates a new SaluteSpeech recognition client
func NewSaluteSpeechToText(config SaluteConfig, logger *zap.Logger) (*SaluteSpeechToText, error) {
	if err := ValidateSaluteConfig(config); err != nil {
		return nil, err
	}

	if config.Scope == "" {
		config.Scope = defaultScope
		logger.Info("Using default OAuth scope", zap.String("scope", config.Scope))
	}

	if config.OAuthURL == "" {
		config.OAuthURL = defaultOAuthURL
	}

	if config.RecognizeURL == "" {
		config.RecognizeURL = defaultRecognizeURL
	}

	httpClient := &http.Client{Timeout: requestTimeout}

	return &SaluteSpeechToText{
		recognizeURL: config.RecognizeURL,
		httpClient:   httpClient,
		tokens:       newTokenSource(config, httpClient, logger),
		logger:       logger,
	}, nil
}

// Transcribe sends the audio to the recognition endpoint and returns the
// recognized text. An empty transcript means no speech was detected and is
// a valid outcome, not an error.
func (s *SaluteSpeechToText) Transcribe(ctx context.Context, audio []byte) (entities.Transcript, error) {
	return s.transcribe(ctx, audio, false)
}

func (s *SaluteSpeechToText) transcribe(ctx context.Context, audio []byte, retried bool) (entities.Transcript, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return entities.Transcript{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.recognizeURL, bytes.NewReader(audio))
	if err != nil {
		return entities.Transcript{}, &repositories.TranscriptionError{Err: err}
	}

	req.Header.Set("Content-Type", recognizeContentType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return entities.Transcript{}, &repositories.TranscriptionError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return entities.Transcript{}, &repositories.TranscriptionError{Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode == http.StatusUnauthorized && !retried {
		// The cached token was rejected; drop it and repeat once with a
		// fresh one. A second 401 is terminal.
		s.logger.Warn("Recognition rejected bearer token, refreshing once")
		s.tokens.Invalidate()
		return s.transcribe(ctx, audio, true)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return entities.Transcript{}, &repositories.TranscriptionError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var parsed recognizeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return entities.Transcript{}, &repositories.TranscriptionError{Err: fmt.Errorf("decoding response: %w", err)}
	}

	text := strings.TrimSpace(strings.Join(parsed.Result, " "))
	if text == "" {
		s.logger.Info("No speech detected in recording")
		return entities.Transcript{Confidence: parsed.Confidence}, nil
	}

	return entities.Transcript{Text: text, Confidence: parsed.Confidence}, nil
}

// recognizeResponse is the recognition endpoint's payload. result is a
// single string or an array of segments depending on recording length;
// confidence is informational only.
type recognizeResponse struct {
	Result     segments `json:"result"`
	Confidence float64  `json:"confidence"`
}

type segments []string

func (s *segments) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = nil
		return nil
	}

	if trimmed[0] == '[' {
		var many []string
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return err
		}
		*s = many
		return nil
	}

	var one string
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return err
	}
	*s = segments{one}
	return nil
}
