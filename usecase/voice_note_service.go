package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/swara/domain/entities"
	"github.com/satriahrh/swara/domain/repositories"
	"github.com/satriahrh/swara/internal/pipeline"
)

const (
	// Recognition expects Ogg/Opus regardless of what the client recorded.
	recognitionFormat  = "ogg"
	recognitionBitrate = 32

	voiceNoteTimeout = 90 * time.Second
)

// VoiceNoteService turns a recorded voice note into a transcript: it
// transcodes the recording into the recognizer's format, runs speech
// recognition, and records an audit event for the outcome.
type VoiceNoteService struct {
	converter repositories.AudioConverter
	stt       repositories.SpeechToText
	audit     repositories.AuditTrail
	runner    *pipeline.Runner
	logger    *zap.Logger
}

// NewVoiceNoteService creates a new voice note service. A nil stt means
// transcription is not configured for this deployment; Process then
// reports the feature as unavailable without error.
func NewVoiceNoteService(
	converter repositories.AudioConverter,
	stt repositories.SpeechToText,
	audit repositories.AuditTrail,
	logger *zap.Logger,
) *VoiceNoteService {
	return &VoiceNoteService{
		converter: converter,
		stt:       stt,
		audit:     audit,
		runner:    pipeline.NewRunner(logger),
		logger:    logger,
	}
}

// Process transcodes and transcribes a voice note. It returns nil without
// error when transcription is disabled, and a possibly-empty transcript on
// success: an empty transcript means no speech was detected.
func (s *VoiceNoteService) Process(ctx context.Context, note entities.VoiceNote) (*entities.Transcript, error) {
	if s.stt == nil {
		s.logger.Debug("Transcription not configured, skipping voice note",
			zap.String("deviceID", note.DeviceID))
		return nil, nil
	}

	data := pipeline.Data{
		"audio":  note.Data,
		"format": note.Format,
	}

	_, err := s.runner.Run(ctx, &voiceNoteDefinition{service: s}, data)
	if err != nil {
		s.recordFailure(ctx, note, err)
		return nil, err
	}

	transcript := data["transcript"].(entities.Transcript)

	s.record(ctx, entities.NewAuditEvent(entities.AuditKindMessage, note.DeviceID,
		fmt.Sprintf("voice note transcribed (%d ms, confidence %.2f, empty=%t)",
			note.DurationMs, transcript.Confidence, transcript.Empty())))

	return &transcript, nil
}

// recordFailure maps the failure to its audit kind before recording it
func (s *VoiceNoteService) recordFailure(ctx context.Context, note entities.VoiceNote, err error) {
	kind := entities.AuditKindError

	var authErr *repositories.AuthError
	var trErr *repositories.TranscriptionError
	switch {
	case errors.As(err, &authErr):
		kind = entities.AuditKindAuth
	case errors.As(err, &trErr) && trErr.Status == http.StatusTooManyRequests:
		kind = entities.AuditKindRateLimit
	}

	s.record(ctx, entities.NewAuditEvent(kind, note.DeviceID, err.Error()))
}

// record writes an audit event, logging rather than failing the request
// when the trail itself is unavailable
func (s *VoiceNoteService) record(ctx context.Context, event entities.AuditEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.Warn("Failed to record audit event",
			zap.String("kind", string(event.Kind)),
			zap.Error(err))
	}
}

// voiceNoteDefinition is the two-step pipeline for one voice note turn
type voiceNoteDefinition struct {
	service *VoiceNoteService
}

func (d *voiceNoteDefinition) ID() string             { return "voice_note" }
func (d *voiceNoteDefinition) Timeout() time.Duration { return voiceNoteTimeout }

func (d *voiceNoteDefinition) Steps() []pipeline.Step {
	return []pipeline.Step{
		&convertStep{converter: d.service.converter},
		&transcribeStep{stt: d.service.stt},
	}
}

// convertStep re-encodes the recording into the recognizer's format. It
// is a no-op when the note is already in that format.
type convertStep struct {
	converter repositories.AudioConverter
}

func (s *convertStep) ID() pipeline.StepID { return "convert" }

func (s *convertStep) Execute(ctx context.Context, data pipeline.Data) error {
	format := data["format"].(string)
	if format == recognitionFormat || s.converter == nil {
		return nil
	}

	audio := data["audio"].([]byte)
	converted, err := s.converter.Convert(ctx, audio, format, recognitionFormat, recognitionBitrate)
	if err != nil {
		return err
	}

	data["audio"] = converted
	data["format"] = recognitionFormat
	return nil
}

// transcribeStep runs speech recognition on the converted audio
type transcribeStep struct {
	stt repositories.SpeechToText
}

func (s *transcribeStep) ID() pipeline.StepID { return "transcribe" }

func (s *transcribeStep) Execute(ctx context.Context, data pipeline.Data) error {
	audio := data["audio"].([]byte)

	transcript, err := s.stt.Transcribe(ctx, audio)
	if err != nil {
		return err
	}

	data["transcript"] = transcript
	return nil
}
