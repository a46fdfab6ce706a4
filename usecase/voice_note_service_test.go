package usecase

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/swara/domain/entities"
	"github.com/satriahrh/swara/domain/repositories"
)

type stubConverter struct {
	calls int
	out   []byte
	err   error
}

func (c *stubConverter) Convert(ctx context.Context, src []byte, sourceFormat, targetFormat string, bitrateKbps int) ([]byte, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.out, nil
}

type stubSTT struct {
	gotAudio   []byte
	transcript entities.Transcript
	err        error
}

func (s *stubSTT) Transcribe(ctx context.Context, audio []byte) (entities.Transcript, error) {
	s.gotAudio = audio
	if s.err != nil {
		return entities.Transcript{}, s.err
	}
	return s.transcript, nil
}

type stubAudit struct {
	mu     sync.Mutex
	events []entities.AuditEvent
}

func (a *stubAudit) Record(ctx context.Context, event entities.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return nil
}

func (a *stubAudit) kinds() []entities.AuditKind {
	a.mu.Lock()
	defer a.mu.Unlock()
	kinds := make([]entities.AuditKind, len(a.events))
	for i, event := range a.events {
		kinds[i] = event.Kind
	}
	return kinds
}

func newNote(format string) entities.VoiceNote {
	return entities.VoiceNote{
		DeviceID:   "device-1",
		SessionID:  "session-1",
		Format:     format,
		DurationMs: 1200,
		Data:       []byte("raw-audio"),
	}
}

func TestProcessConvertsAndTranscribes(t *testing.T) {
	converter := &stubConverter{out: []byte("converted-audio")}
	stt := &stubSTT{transcript: entities.Transcript{Text: "привет", Confidence: 0.9}}
	audit := &stubAudit{}

	service := NewVoiceNoteService(converter, stt, audit, zaptest.NewLogger(t))

	transcript, err := service.Process(context.Background(), newNote("amr"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if transcript == nil || transcript.Text != "привет" {
		t.Fatalf("Expected transcript 'привет', got %+v", transcript)
	}
	if converter.calls != 1 {
		t.Errorf("Expected 1 conversion, got %d", converter.calls)
	}
	if string(stt.gotAudio) != "converted-audio" {
		t.Errorf("Recognition should receive the converted audio, got %q", stt.gotAudio)
	}

	kinds := audit.kinds()
	if len(kinds) != 1 || kinds[0] != entities.AuditKindMessage {
		t.Errorf("Expected one message audit event, got %v", kinds)
	}
}

func TestProcessSkipsConversionForNativeFormat(t *testing.T) {
	converter := &stubConverter{out: []byte("converted-audio")}
	stt := &stubSTT{transcript: entities.Transcript{Text: "hello"}}

	service := NewVoiceNoteService(converter, stt, &stubAudit{}, zaptest.NewLogger(t))

	if _, err := service.Process(context.Background(), newNote("ogg")); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if converter.calls != 0 {
		t.Errorf("Expected no conversion for ogg input, got %d calls", converter.calls)
	}
	if string(stt.gotAudio) != "raw-audio" {
		t.Errorf("Recognition should receive the original audio, got %q", stt.gotAudio)
	}
}

func TestProcessDisabledWithoutRecognizer(t *testing.T) {
	service := NewVoiceNoteService(&stubConverter{}, nil, &stubAudit{}, zaptest.NewLogger(t))

	transcript, err := service.Process(context.Background(), newNote("ogg"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if transcript != nil {
		t.Errorf("Expected nil transcript when transcription disabled, got %+v", transcript)
	}
}

func TestProcessEmptyTranscriptIsSuccess(t *testing.T) {
	stt := &stubSTT{transcript: entities.Transcript{}}
	audit := &stubAudit{}

	service := NewVoiceNoteService(&stubConverter{}, stt, audit, zaptest.NewLogger(t))

	transcript, err := service.Process(context.Background(), newNote("ogg"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if transcript == nil || !transcript.Empty() {
		t.Fatalf("Expected empty transcript, got %+v", transcript)
	}

	kinds := audit.kinds()
	if len(kinds) != 1 || kinds[0] != entities.AuditKindMessage {
		t.Errorf("Empty transcript should still audit as message, got %v", kinds)
	}
}

func TestProcessAuditsConversionFailure(t *testing.T) {
	convErr := &repositories.ConversionError{Detail: "decoder blew up", Err: context.DeadlineExceeded}
	converter := &stubConverter{err: convErr}
	audit := &stubAudit{}

	service := NewVoiceNoteService(converter, &stubSTT{}, audit, zaptest.NewLogger(t))

	if _, err := service.Process(context.Background(), newNote("amr")); err == nil {
		t.Fatal("Expected error from conversion failure")
	}

	kinds := audit.kinds()
	if len(kinds) != 1 || kinds[0] != entities.AuditKindError {
		t.Errorf("Expected one error audit event, got %v", kinds)
	}
}

func TestProcessAuditsAuthFailure(t *testing.T) {
	stt := &stubSTT{err: &repositories.AuthError{Op: "refresh", Err: context.DeadlineExceeded}}
	audit := &stubAudit{}

	service := NewVoiceNoteService(&stubConverter{}, stt, audit, zaptest.NewLogger(t))

	if _, err := service.Process(context.Background(), newNote("ogg")); err == nil {
		t.Fatal("Expected error from auth failure")
	}

	kinds := audit.kinds()
	if len(kinds) != 1 || kinds[0] != entities.AuditKindAuth {
		t.Errorf("Expected one auth audit event, got %v", kinds)
	}
}

func TestProcessAuditsRateLimit(t *testing.T) {
	stt := &stubSTT{err: &repositories.TranscriptionError{Status: 429, Err: context.DeadlineExceeded}}
	audit := &stubAudit{}

	service := NewVoiceNoteService(&stubConverter{}, stt, audit, zaptest.NewLogger(t))

	if _, err := service.Process(context.Background(), newNote("ogg")); err == nil {
		t.Fatal("Expected error from rate limited recognizer")
	}

	kinds := audit.kinds()
	if len(kinds) != 1 || kinds[0] != entities.AuditKindRateLimit {
		t.Errorf("Expected one rate_limit audit event, got %v", kinds)
	}
}
