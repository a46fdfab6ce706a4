package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/swara/domain/entities"
	"github.com/satriahrh/swara/domain/repositories"
)

const (
	greetingReply = "Привет! Я Swara. Отправь мне голосовое сообщение, и я отвечу."
	resetReply    = "Хорошо, начнём сначала. О чём поговорим?"
)

// ChatService handles conversation logic: it resolves the device's
// session, routes slash commands, and forwards everything else to the
// language model.
type ChatService struct {
	llm      repositories.LargeLanguageModel
	sessions repositories.SessionRepository
	audit    repositories.AuditTrail
	logger   *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	llm repositories.LargeLanguageModel,
	sessions repositories.SessionRepository,
	audit repositories.AuditTrail,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		llm:      llm,
		sessions: sessions,
		audit:    audit,
		logger:   logger,
	}
}

// Respond processes one user utterance and returns the assistant's reply.
// Messages starting with "/" are commands and never reach the model.
func (s *ChatService) Respond(ctx context.Context, deviceID, text string, metadata entities.SessionMessageMetadata) (string, error) {
	session, err := s.resolveSession(ctx, deviceID)
	if err != nil {
		return "", err
	}

	if strings.HasPrefix(text, "/") {
		return s.handleCommand(ctx, session, text)
	}

	chatSession, err := s.llm.GenerateChat(ctx, session.GetConversationHistory())
	if err != nil {
		return "", fmt.Errorf("failed to open chat session: %w", err)
	}

	session.AddMessage(entities.MessageRoleUser, text, 0, metadata)

	reply, err := chatSession.SendMessage(ctx, entities.SessionMessage{
		Role:    entities.MessageRoleUser,
		Content: text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}

	session.AddMessage(entities.MessageRoleAssistant, reply.Content, 0, entities.SessionMessageMetadata{})

	if err := s.sessions.Update(ctx, session); err != nil {
		s.logger.Warn("Failed to persist session",
			zap.String("deviceID", deviceID),
			zap.Error(err))
	}

	return reply.Content, nil
}

// handleCommand executes a slash command against the session
func (s *ChatService) handleCommand(ctx context.Context, session *entities.Session, text string) (string, error) {
	command := strings.Fields(text)[0]

	s.record(ctx, entities.NewAuditEvent(entities.AuditKindToolUse, session.DeviceID, command))

	metadata := entities.SessionMessageMetadata{Command: &command}
	session.AddMessage(entities.MessageRoleUser, text, 0, metadata)

	var reply string
	switch command {
	case "/start":
		session.Reset()
		reply = greetingReply
	case "/reset":
		session.Reset()
		reply = resetReply
	default:
		reply = fmt.Sprintf("Я не знаю команду %s.", command)
	}

	session.AddMessage(entities.MessageRoleAssistant, reply, 0, entities.SessionMessageMetadata{})

	if err := s.sessions.Update(ctx, session); err != nil {
		s.logger.Warn("Failed to persist session after command",
			zap.String("deviceID", session.DeviceID),
			zap.String("command", command),
			zap.Error(err))
	}

	return reply, nil
}

// resolveSession returns the device's active session, creating a fresh one
// when there is none, the last one expired, or the conversation went idle.
func (s *ChatService) resolveSession(ctx context.Context, deviceID string) (*entities.Session, error) {
	session, err := s.sessions.GetLastByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if session != nil && !session.IsExpired() && !session.ShouldCreateNewSession() {
		return session, nil
	}

	if session != nil && !session.IsExpired() {
		session.Expire()
		if err := s.sessions.Update(ctx, session); err != nil {
			s.logger.Warn("Failed to expire idle session",
				zap.String("deviceID", deviceID),
				zap.Error(err))
		}
	}

	fresh := entities.NewSession(deviceID)
	if err := s.sessions.Create(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("Started new session",
		zap.String("deviceID", deviceID),
		zap.String("sessionID", fresh.ID.Hex()))

	return fresh, nil
}

func (s *ChatService) record(ctx context.Context, event entities.AuditEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.Warn("Failed to record audit event",
			zap.String("kind", string(event.Kind)),
			zap.Error(err))
	}
}
