package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/satriahrh/swara/domain/entities"
	"github.com/satriahrh/swara/domain/repositories"
)

// MockLLM is a canned-response implementation used when no Gemini API key
// is configured.
type MockLLM struct{}

var _ repositories.LargeLanguageModel = (*MockLLM)(nil)

// NewMockLLM creates a new mock LLM
func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

// GenerateChat implements repositories.LargeLanguageModel
func (g *MockLLM) GenerateChat(ctx context.Context, history []entities.SessionMessage) (repositories.ChatSession, error) {
	return &MockChatSession{
		history: append([]entities.SessionMessage(nil), history...),
	}, nil
}

// MockChatSession implements repositories.ChatSession
type MockChatSession struct {
	history []entities.SessionMessage
}

// SendMessage implements repositories.ChatSession
func (g *MockChatSession) SendMessage(ctx context.Context, message entities.SessionMessage) (entities.SessionMessage, error) {
	// Add user message to history
	g.history = append(g.history, message)

	var response string
	switch {
	case len(message.Content) > 0:
		response = fmt.Sprintf("Я услышала: «%s». Расскажи ещё что-нибудь!", message.Content)
	default:
		response = "Привет! Я Swara. Что расскажешь сегодня?"
	}

	responseMessage := entities.SessionMessage{
		Timestamp: time.Now(),
		Role:      entities.MessageRoleAssistant,
		Content:   response,
	}

	// Add response to history
	g.history = append(g.history, responseMessage)

	return responseMessage, nil
}

// History implements repositories.ChatSession
func (g *MockChatSession) History() ([]entities.SessionMessage, error) {
	return g.history, nil
}
