package ai

import (
	"fmt"
)

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType // "gemini", "ollama" or "auto"

	// Gemini config
	GeminiAPIKey string

	// Ollama config
	OllamaBaseURL string // e.g., "http://localhost:11434"
	OllamaModel   string // e.g., "llama3", "mistral"
}

// DynamicConfig is Config with runtime getters for the Ollama settings,
// so the settings API can repoint the client without a restart.
type DynamicConfig struct {
	Provider     ProviderType
	GeminiAPIKey string

	GetOllamaBaseURL func() string
	GetOllamaModel   func() string
}

// NewModelClientWithDynamicConfig creates a ModelClient whose Ollama
// settings are read through the supplied getters on every request.
func NewModelClientWithDynamicConfig(cfg DynamicConfig) (ModelClient, error) {
	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGeminiClient(cfg.GeminiAPIKey), nil

	case ProviderOllama:
		return NewOllamaClientWithGetters(cfg.GetOllamaBaseURL, cfg.GetOllamaModel), nil

	default:
		ollama := NewOllamaClientWithGetters(cfg.GetOllamaBaseURL, cfg.GetOllamaModel)
		if cfg.GeminiAPIKey != "" {
			return NewFallbackClient(NewGeminiClient(cfg.GeminiAPIKey), ollama), nil
		}
		return ollama, nil
	}
}

// NewModelClient creates a ModelClient based on the config.
// This is the factory function - switch AI provider by changing config.Provider
func NewModelClient(cfg Config) (ModelClient, error) {
	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGeminiClient(cfg.GeminiAPIKey), nil

	case ProviderOllama:
		return NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaModel), nil

	default:
		// Auto: use both with fallback when a Gemini key is available,
		// otherwise Ollama alone.
		ollama := NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaModel)
		if cfg.GeminiAPIKey != "" {
			return NewFallbackClient(NewGeminiClient(cfg.GeminiAPIKey), ollama), nil
		}
		return ollama, nil
	}
}
