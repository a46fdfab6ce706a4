package websocket

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func TestMessageValidator_ValidateVoiceNote(t *testing.T) {
	validator := NewMessageValidator()

	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{
			name: "valid voice note",
			message: `{
				"type": "voice_note",
				"format": "amr",
				"duration_ms": 2400,
				"size": 38000
			}`,
			wantErr: false,
		},
		{
			name: "missing format",
			message: `{
				"type": "voice_note",
				"duration_ms": 2400
			}`,
			wantErr: true,
		},
		{
			name: "unsupported format",
			message: `{
				"type": "voice_note",
				"format": "midi",
				"duration_ms": 2400
			}`,
			wantErr: true,
		},
		{
			name: "negative duration",
			message: `{
				"type": "voice_note",
				"format": "ogg",
				"duration_ms": -5
			}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.ValidateMessage([]byte(tt.message))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessageValidator_ValidateText(t *testing.T) {
	validator := NewMessageValidator()

	result, err := validator.ValidateMessage([]byte(`{"type": "text", "text": "привет"}`))
	if err != nil {
		t.Errorf("ValidateMessage() error = %v", err)
	}

	textMsg, ok := result.(*TextMessage)
	if !ok {
		t.Fatalf("Expected *TextMessage, got %T", result)
	}
	if textMsg.Text != "привет" {
		t.Errorf("Expected text 'привет', got '%s'", textMsg.Text)
	}

	if _, err := validator.ValidateMessage([]byte(`{"type": "text"}`)); err == nil {
		t.Error("Expected error for text message without text")
	}
}

func TestMessageValidator_ValidateStop(t *testing.T) {
	validator := NewMessageValidator()

	result, err := validator.ValidateMessage([]byte(`{"type": "stop"}`))
	if err != nil {
		t.Errorf("ValidateMessage() error = %v", err)
	}

	if _, ok := result.(*StopMessage); !ok {
		t.Errorf("Expected *StopMessage, got %T", result)
	}
}

func TestNewErrorMessage(t *testing.T) {
	code := ErrorCodeTranscription
	message := "Test error message"
	details := "Test error details"

	errorMsg := NewErrorMessage(code, message, details)

	if errorMsg.Type != MessageTypeError {
		t.Errorf("Expected type %s, got %s", MessageTypeError, errorMsg.Type)
	}
	if errorMsg.Code != code {
		t.Errorf("Expected code %s, got %s", code, errorMsg.Code)
	}
	if errorMsg.Message != message {
		t.Errorf("Expected message %s, got %s", message, errorMsg.Message)
	}
	if errorMsg.Details != details {
		t.Errorf("Expected details %s, got %s", details, errorMsg.Details)
	}

	// Verify timestamp is recent
	timestamp, err := time.Parse(time.RFC3339, errorMsg.Timestamp)
	if err != nil {
		t.Errorf("Invalid timestamp format: %v", err)
	}
	if time.Since(timestamp) > time.Second {
		t.Errorf("Timestamp is not recent: %s", errorMsg.Timestamp)
	}
}

func TestNewTranscriptMessage(t *testing.T) {
	msg := NewTranscriptMessage("привет мир", 0.92)
	if msg.Type != MessageTypeTranscript {
		t.Errorf("Expected type %s, got %s", MessageTypeTranscript, msg.Type)
	}
	if msg.Empty {
		t.Error("Non-empty transcript should not be flagged empty")
	}

	empty := NewTranscriptMessage("", 0)
	if !empty.Empty {
		t.Error("Empty transcript should be flagged empty")
	}
}

func TestMessageSerialization(t *testing.T) {
	// Test that all outbound message types serialize with the base fields
	tests := []struct {
		name    string
		message interface{}
	}{
		{
			name:    "TypingMessage",
			message: NewTypingMessage(),
		},
		{
			name:    "TranscriptMessage",
			message: NewTranscriptMessage("привет", 0.9),
		},
		{
			name:    "ReplyMessage",
			message: NewReplyMessage("Здравствуй!"),
		},
		{
			name:    "ErrorMessage",
			message: NewErrorMessage(ErrorCodeInternal, "Test message", "Test details"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Serialize
			data, err := json.Marshal(tt.message)
			if err != nil {
				t.Errorf("Failed to marshal message: %v", err)
				return
			}

			// Deserialize back to map to verify JSON structure
			var result map[string]interface{}
			if err := json.Unmarshal(data, &result); err != nil {
				t.Errorf("Failed to unmarshal message: %v", err)
				return
			}

			// Verify basic structure
			if _, exists := result["type"]; !exists {
				t.Errorf("Message missing 'type' field")
			}
			if _, exists := result["timestamp"]; !exists {
				t.Errorf("Message missing 'timestamp' field")
			}
		})
	}
}

func TestMessageValidator_InvalidJSON(t *testing.T) {
	validator := NewMessageValidator()

	invalidMessages := []string{
		`{invalid json}`,
		`{"type": "voice_note", "format":}`,
		``,
		`{"type": }`,
	}

	for i, msg := range invalidMessages {
		t.Run(fmt.Sprintf("invalid_json_%d", i), func(t *testing.T) {
			_, err := validator.ValidateMessage([]byte(msg))
			if err == nil {
				t.Errorf("Expected error for invalid JSON, got nil")
			}
		})
	}
}

func TestMessageValidator_UnsupportedMessageType(t *testing.T) {
	validator := NewMessageValidator()

	message := `{
		"type": "unsupported_type",
		"data": "some data"
	}`

	_, err := validator.ValidateMessage([]byte(message))
	if err == nil {
		t.Errorf("Expected error for unsupported message type, got nil")
	}
}
