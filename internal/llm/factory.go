package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "groq":
		// Groq serves the OpenAI chat completions API at its own endpoint
		if config.BaseURL == "" {
			config.BaseURL = GroqBaseURL
		}
		if config.Model == "" {
			config.Model = "llama-3.3-70b-versatile"
		}
		return NewOpenAIProvider("groq", config)

	case "openai":
		return NewOpenAIProvider("openai", config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured - return nil (LLM disabled)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: groq, openai, anthropic, ollama)", config.Provider)
	}
}
