package ai

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
)

// FallbackClient implements smart AI provider routing with fallback:
// Gemini first (better structured output), fallback to Ollama on quota or
// connection errors, and a retry of the other provider when both fail once.
type FallbackClient struct {
	gemini ModelClient
	ollama *OllamaClient
}

// NewFallbackClient creates a new fallback client with both providers
func NewFallbackClient(gemini ModelClient, ollama *OllamaClient) *FallbackClient {
	return &FallbackClient{
		gemini: gemini,
		ollama: ollama,
	}
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	// Check for network errors
	if _, ok := err.(net.Error); ok {
		return true
	}

	// Check for common connection error messages
	errStr := err.Error()
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"EOF",
	}

	for _, indicator := range connectionIndicators {
		if strings.Contains(strings.ToLower(errStr), strings.ToLower(indicator)) {
			return true
		}
	}

	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
		"RESOURCE_EXHAUSTED",
	}

	for _, indicator := range quotaIndicators {
		if strings.Contains(strings.ToLower(errStr), strings.ToLower(indicator)) {
			return true
		}
	}

	return false
}

// Complete tries Gemini first, falls back to Ollama on quota/connection errors
func (f *FallbackClient) Complete(ctx context.Context, prompt string) (ModelResponse, error) {
	if f.gemini != nil {
		result, err := f.gemini.Complete(ctx, prompt)
		if err == nil {
			return result, nil
		}

		if isQuotaError(err) {
			log.Printf("[AI] Gemini quota exhausted: %v, falling back to Ollama", err)
		} else {
			log.Printf("[AI] Gemini error: %v, falling back to Ollama", err)
		}
	}

	if f.ollama != nil {
		result, err := f.ollama.Complete(ctx, prompt)
		if err == nil {
			return result, nil
		}

		// If Ollama also fails with connection error, retry Gemini once
		// (the first failure might have been transient).
		if isConnectionError(err) && f.gemini != nil {
			log.Printf("[AI] Ollama connection failed: %v, retrying Gemini", err)
			return f.gemini.Complete(ctx, prompt)
		}

		return nil, fmt.Errorf("ollama completion failed: %w", err)
	}

	return nil, fmt.Errorf("no AI provider available")
}
