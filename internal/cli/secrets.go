package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/okarpov/verilab/internal/model"
)

// resolveLLMCredential loads the claim-generation credential from the
// environment. A missing required key is a fatal configuration error: the
// process refuses to start rather than failing mid-trial.
func resolveLLMCredential(cfg *model.Config) error {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "groq":
		cfg.LLM.APIKey = os.Getenv("GROQ_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("GROQ_API_KEY environment variable not set (required for provider groq)")
		}
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set (required for provider openai)")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set (required for provider anthropic)")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	default:
		return fmt.Errorf("unknown LLM provider: %s (supported: groq, openai, anthropic, ollama)", cfg.LLM.Provider)
	}
	return nil
}

// resolveSearchCredential loads the evidence-search credential from the
// environment.
func resolveSearchCredential(cfg *model.Config) error {
	cfg.Search.APIKey = os.Getenv("TAVILY_API_KEY")
	if cfg.Search.APIKey == "" {
		return fmt.Errorf("TAVILY_API_KEY environment variable not set (required for evidence search)")
	}
	return nil
}
