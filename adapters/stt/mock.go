package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/satriahrh/swara/domain/entities"
	"github.com/satriahrh/swara/domain/repositories"
)

// MockSpeechToText is a placeholder recognizer for development and tests
type MockSpeechToText struct {
	logger *zap.Logger
}

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) repositories.SpeechToText {
	return &MockSpeechToText{
		logger: logger,
	}
}

// Transcribe implements repositories.SpeechToText with canned results
func (s *MockSpeechToText) Transcribe(ctx context.Context, audio []byte) (entities.Transcript, error) {
	s.logger.Info("Processing mock speech-to-text", zap.Int("audioSize", len(audio)))

	switch {
	case len(audio) > 10000:
		return entities.Transcript{Text: "Привет, расскажи какая сегодня погода", Confidence: 0.95}, nil
	case len(audio) > 1000:
		return entities.Transcript{Text: "Привет", Confidence: 0.9}, nil
	case len(audio) > 0:
		return entities.Transcript{Text: "Да", Confidence: 0.7}, nil
	default:
		// No audio means no speech, which is a valid empty result.
		return entities.Transcript{}, nil
	}
}
