package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/swara/domain/entities"
	"github.com/satriahrh/swara/domain/repositories"
)

// GeminiChatSession implements the ChatSession interface
type GeminiChatSession struct {
	client          *genai.Client
	logger          *zap.Logger
	model           string
	temperature     float32
	topP            float32
	topK            float32
	maxOutputTokens int
	timeoutSeconds  int
	safetySettings  []*genai.SafetySetting
	systemPrompt    string
	history         []*genai.Content
}

var _ repositories.ChatSession = (*GeminiChatSession)(nil)

// ValidateGeminiConfig validates the GeminiConfig
func ValidateGeminiConfig(config GeminiConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("Gemini API key is required")
	}

	// Validate temperature is in the valid range
	if config.Temperature != 0 && (config.Temperature < 0 || config.Temperature > 1) {
		return fmt.Errorf("temperature must be between 0 and 1, got %f", config.Temperature)
	}

	// Validate topP is in the valid range
	if config.TopP != 0 && (config.TopP < 0 || config.TopP > 1) {
		return fmt.Errorf("topP must be between 0 and 1, got %f", config.TopP)
	}

	// Validate topK is positive if specified
	if config.TopK < 0 {
		return fmt.Errorf("topK must be positive, got %f", config.TopK)
	}

	// Validate timeout is reasonable if specified
	if config.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout must be positive, got %d", config.TimeoutSeconds)
	}

	return nil
}

// NewGeminiChatSession creates a new chat session with config and history
func NewGeminiChatSession(client *genai.Client, config GeminiConfig, logger *zap.Logger, history []entities.SessionMessage) (*GeminiChatSession, error) {
	// Validate required configuration
	if err := ValidateGeminiConfig(config); err != nil {
		return nil, err
	}

	// Convert session messages to Gemini format
	geminiHistory := convertSessionToGeminiFormat(history)

	// Apply defaults where needed
	model := config.Model
	if model == "" {
		model = defaultModel
	}

	temperature := config.Temperature
	if temperature == 0 {
		temperature = float32(defaultTemperature)
	}

	topP := config.TopP
	if topP == 0 {
		topP = float32(defaultTopP)
	}

	topK := config.TopK
	if topK == 0 {
		topK = float32(defaultTopK)
	}

	maxOutputTokens := config.MaxOutputTokens
	if maxOutputTokens == 0 {
		maxOutputTokens = defaultMaxTokens
	}

	timeoutSeconds := config.TimeoutSeconds
	if timeoutSeconds == 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}

	return &GeminiChatSession{
		client:          client,
		logger:          logger,
		model:           model,
		temperature:     temperature,
		topP:            topP,
		topK:            topK,
		maxOutputTokens: maxOutputTokens,
		timeoutSeconds:  timeoutSeconds,
		safetySettings:  GeminiHardcodedConfig.SafetySettings,
		systemPrompt:    GeminiHardcodedConfig.SystemPrompt,
		history:         geminiHistory,
	}, nil
}

// SendMessage sends a message and gets a response, updating the history
func (s *GeminiChatSession) SendMessage(ctx context.Context, message entities.SessionMessage) (entities.SessionMessage, error) {
	// Prepare contents for API call (system prompt + history + current message)
	var contents []*genai.Content

	// Add system instruction as the first message
	contents = append(contents, genai.NewContentFromText(s.systemPrompt, genai.RoleUser))

	// Add existing history (already in Gemini format)
	contents = append(contents, s.history...)

	// Add the current user message to the contents for this API call
	userContent := genai.NewContentFromText(message.Content, genai.RoleUser)
	contents = append(contents, userContent)

	// Configure settings using the session's configuration
	config := &genai.GenerateContentConfig{
		SafetySettings:  s.safetySettings,
		Temperature:     genai.Ptr(s.temperature),
		TopP:            genai.Ptr(s.topP),
		TopK:            genai.Ptr(s.topK),
		MaxOutputTokens: int32(s.maxOutputTokens),
	}

	// Add timeout to context if not already set
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeoutSeconds)*time.Second)
	defer cancel()

	// Add retry logic
	var response *genai.GenerateContentResponse
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		response, err = s.client.Models.GenerateContent(ctx, s.model, contents, config)
		if err == nil {
			break
		}

		s.logger.Warn("Failed to generate content, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt < 2 {
			time.Sleep(time.Duration(attempt+1) * time.Second)
		}
	}

	if err != nil {
		s.logger.Error("Failed to send message in chat session", zap.Error(err))
		return s.createFallbackResponse(), nil // Return fallback instead of error
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		s.logger.Warn("No content generated in chat session")
		return s.createFallbackResponse(), nil
	}

	// Extract text from the response
	var responseText string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			responseText += part.Text
		}
	}

	if responseText == "" {
		s.logger.Warn("Empty response in chat session")
		return s.createFallbackResponse(), nil
	}

	// Create response message and add both user message and response to history
	responseContent := genai.NewContentFromText(responseText, genai.RoleModel)

	// Add both messages to history
	s.history = append(s.history, userContent, responseContent)

	responseMessage := entities.SessionMessage{
		Timestamp: time.Now(),
		Role:      entities.MessageRoleAssistant,
		Content:   responseText,
	}

	s.logger.Info("Chat session message processed",
		zap.String("user_message", message.Content[:min(50, len(message.Content))]),
		zap.String("response_preview", responseText[:min(50, len(responseText))]),
		zap.Int("history_length", len(s.history)))

	return responseMessage, nil
}

// History returns the current conversation history
func (s *GeminiChatSession) History() ([]entities.SessionMessage, error) {
	return convertGeminiToSessionFormat(s.history), nil
}

// createFallbackResponse creates a fallback response message
func (s *GeminiChatSession) createFallbackResponse() entities.SessionMessage {
	// Simple pseudo-random selection based on current time
	fallbacks := GeminiHardcodedConfig.Fallbacks
	index := int(time.Now().UnixNano()) % len(fallbacks)

	// Add fallback to history as Gemini content
	fallbackContent := genai.NewContentFromText(fallbacks[index], genai.RoleModel)
	s.history = append(s.history, fallbackContent)

	return entities.SessionMessage{
		Timestamp: time.Now(),
		Role:      entities.MessageRoleAssistant,
		Content:   fallbacks[index],
	}
}

// convertSessionToGeminiFormat converts session messages to Gemini format
func convertSessionToGeminiFormat(messages []entities.SessionMessage) []*genai.Content {
	var contents []*genai.Content

	for _, msg := range messages {
		var role genai.Role
		switch msg.Role {
		case entities.MessageRoleUser:
			role = genai.RoleUser
		case entities.MessageRoleAssistant:
			role = genai.RoleModel
		case entities.MessageRoleSystem:
			role = genai.RoleUser // Treat system messages as user messages in Gemini
		default:
			role = genai.RoleUser // Default to user role
		}

		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	return contents
}

// convertGeminiToSessionFormat converts Gemini content to session messages
func convertGeminiToSessionFormat(contents []*genai.Content) []entities.SessionMessage {
	var messages []entities.SessionMessage

	for _, content := range contents {
		var role entities.MessageRole
		switch content.Role {
		case genai.RoleUser:
			role = entities.MessageRoleUser
		case genai.RoleModel:
			role = entities.MessageRoleAssistant
		default:
			role = entities.MessageRoleUser // Default to user role
		}

		// Extract text from parts (limiting to text only as specified)
		var text string
		for _, part := range content.Parts {
			if part.Text != "" {
				text += part.Text
			}
		}

		if text != "" {
			messages = append(messages, entities.SessionMessage{
				Role:    role,
				Content: text,
			})
		}
	}

	return messages
}
