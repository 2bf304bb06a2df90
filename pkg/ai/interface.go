package ai

import (
	"context"
)

// ModelResponse is one completion from a language model provider.
// Providers return different shapes (a single string, a list of content
// parts, a provider-specific wrapper); ExtractText flattens whatever shape
// arrived into plain text. No format guarantee beyond that: callers must
// treat the text as untrusted model output.
type ModelResponse interface {
	ExtractText() string
}

// TextResponse is a completion that arrived as a single string.
type TextResponse string

func (r TextResponse) ExtractText() string { return string(r) }

// PartsResponse is a completion that arrived as multiple content parts
// (the Gemini candidates/content/parts shape). ExtractText concatenates
// the text of every part in order.
type PartsResponse []string

func (r PartsResponse) ExtractText() string {
	var out string
	for _, p := range r {
		out += p
	}
	return out
}

// ModelClient is the interface for text completion providers.
// Implement this interface to add new AI providers (Gemini, Ollama, OpenAI, etc.)
type ModelClient interface {
	Complete(ctx context.Context, prompt string) (ModelResponse, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
