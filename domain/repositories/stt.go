package repositories

import (
	"context"

	"github.com/satriahrh/swara/domain/entities"
)

// SpeechToText abstracts speech recognition services
type SpeechToText interface {
	// Transcribe converts audio data to text. An empty transcript is a
	// valid result meaning no speech was detected.
	Transcribe(ctx context.Context, audio []byte) (entities.Transcript, error)
}
