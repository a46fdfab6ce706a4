package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	// Client to server
	MessageTypeVoiceNote MessageType = "voice_note"
	MessageTypeText      MessageType = "text"
	MessageTypeStop      MessageType = "stop"

	// Server to client
	MessageTypeTyping     MessageType = "typing"
	MessageTypeTranscript MessageType = "transcript"
	MessageTypeReply      MessageType = "reply"
	MessageTypeError      MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"message_id,omitempty"`
}

// VoiceNoteMessage announces a voice recording. The audio bytes follow in
// the next binary frame on the same connection.
type VoiceNoteMessage struct {
	BaseMessage
	Format     string `json:"format"`
	DurationMs int    `json:"duration_ms"`
	Size       int    `json:"size,omitempty"`
}

// TextMessage is a typed (non-voice) user message
type TextMessage struct {
	BaseMessage
	Text string `json:"text"`
}

// StopMessage interrupts the turn currently being processed
type StopMessage struct {
	BaseMessage
}

// TypingMessage is sent periodically while a turn is being processed
type TypingMessage struct {
	BaseMessage
}

// TranscriptMessage carries the recognized text of a voice note. Empty is
// set when the recognizer found no speech, which is not an error.
type TranscriptMessage struct {
	BaseMessage
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence,omitempty"`
	Empty      bool    `json:"empty"`
}

// ReplyMessage carries the assistant's reply
type ReplyMessage struct {
	BaseMessage
	Text string `json:"text"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error codes sent to clients
const (
	ErrorCodeBadMessage      = "bad_message"
	ErrorCodeAuthFailed      = "auth_failed"
	ErrorCodeConversion      = "conversion_failed"
	ErrorCodeTranscription   = "transcription_failed"
	ErrorCodeRateLimited     = "rate_limited"
	ErrorCodeInternal        = "internal_error"
	ErrorCodeUnexpectedAudio = "unexpected_audio"
)

// MessageValidator provides validation for incoming WebSocket messages
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage validates an incoming message and returns the typed form
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	// First parse as base message to get type
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case MessageTypeVoiceNote:
		var msg VoiceNoteMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid voice note message: %w", err)
		}
		if err := v.validateVoiceNote(&msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case MessageTypeText:
		var msg TextMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid text message: %w", err)
		}
		if msg.Text == "" {
			return nil, fmt.Errorf("text is required")
		}
		return &msg, nil

	case MessageTypeStop:
		var msg StopMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid stop message: %w", err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}

// validateVoiceNote validates voice note announcement fields
func (v *MessageValidator) validateVoiceNote(msg *VoiceNoteMessage) error {
	if msg.Format == "" {
		return fmt.Errorf("format is required")
	}

	validFormats := map[string]bool{
		"ogg": true, "opus": true, "mp3": true, "wav": true, "flac": true, "amr": true,
	}
	if !validFormats[msg.Format] {
		return fmt.Errorf("format must be one of: ogg, opus, mp3, wav, flac, amr")
	}

	if msg.DurationMs < 0 {
		return fmt.Errorf("duration_ms must not be negative")
	}

	return nil
}

// NewTypingMessage creates a typing indicator message
func NewTypingMessage() *TypingMessage {
	return &TypingMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeTyping,
			Timestamp: time.Now().Format(time.RFC3339),
		},
	}
}

// NewTranscriptMessage creates a transcript message
func NewTranscriptMessage(text string, confidence float64) *TranscriptMessage {
	return &TranscriptMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeTranscript,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Text:       text,
		Confidence: confidence,
		Empty:      text == "",
	}
}

// NewReplyMessage creates a reply message
func NewReplyMessage(text string) *ReplyMessage {
	return &ReplyMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeReply,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Text: text,
	}
}

// NewErrorMessage creates a standardized error message
func NewErrorMessage(code, message, details string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeError,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Code:    code,
		Message: message,
		Details: details,
	}
}
