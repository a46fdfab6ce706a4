package repositories

import (
	"context"

	"github.com/satriahrh/swara/domain/entities"
)

// LargeLanguageModel abstracts any chat/LLM provider
type LargeLanguageModel interface {
	// GenerateChat creates a chat session seeded with history
	GenerateChat(ctx context.Context, history []entities.SessionMessage) (ChatSession, error)
}

// ChatSession represents an ongoing conversation session
type ChatSession interface {
	SendMessage(ctx context.Context, message entities.SessionMessage) (entities.SessionMessage, error)
	History() ([]entities.SessionMessage, error)
}
