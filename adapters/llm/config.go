package llm

import "google.golang.org/genai"

const (
	defaultModel          = "gemini-2.0-flash"
	defaultTemperature    = 0.7
	defaultTopP           = 0.95
	defaultTopK           = 40
	defaultMaxTokens      = 1024
	defaultTimeoutSeconds = 30
)

// GeminiConfig holds the Gemini client configuration
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int
	TimeoutSeconds  int
}

// hardcodedConfig carries the parts of the assistant behavior that are not
// operator-tunable: the persona prompt, safety settings, and the fallback
// replies used when generation fails.
type hardcodedConfig struct {
	SystemPrompt   string
	SafetySettings []*genai.SafetySetting
	Fallbacks      []string
}

// GeminiHardcodedConfig is the fixed assistant behavior
var GeminiHardcodedConfig = hardcodedConfig{
	SystemPrompt: "You are Swara, a friendly voice assistant. " +
		"You receive transcribed voice notes from users and reply conversationally. " +
		"Answer in the same language the user speaks, most often Russian. " +
		"Keep replies short and suitable for being read aloud: no markdown, no lists, no links.",
	SafetySettings: []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		},
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		},
		{
			Category:  genai.HarmCategorySexuallyExplicit,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		},
		{
			Category:  genai.HarmCategoryDangerousContent,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		},
	},
	Fallbacks: []string{
		"Извини, я немного задумалась. Повтори, пожалуйста?",
		"Кажется, я не расслышала. Скажи ещё раз?",
		"Прости, сейчас мне трудно ответить. Попробуем ещё раз?",
	},
}
