package usecase

import (
	"encoding/json"
	"strings"

	"prodboard-backend/internal/triage/domain"
	"prodboard-backend/pkg/ai"
)

// SanitizeResponse flattens a model response (which may arrive as several
// content parts) and recovers a JSON object from it.
func SanitizeResponse(resp ai.ModelResponse) (map[string]interface{}, error) {
	if resp == nil {
		return nil, &domain.MalformedResponseError{Reason: "empty response"}
	}
	return SanitizeModelJSON(resp.ExtractText())
}

// SanitizeModelJSON defensively extracts a JSON object from arbitrary
// model text. Models are instructed to return a bare JSON object but
// routinely wrap it in code fences, conversational preamble or trailing
// commentary; this recovers the object anyway. Pure function.
func SanitizeModelJSON(raw string) (map[string]interface{}, error) {
	text := strings.TrimLeft(raw, "\uFEFF\u200B\u200C\u200D \t\r\n")
	text = strings.TrimRight(text, " \t\r\n")

	text = stripCodeFence(text)

	// Tolerate prose before the object
	start := strings.Index(text, "{")
	if start == -1 {
		return nil, &domain.MalformedResponseError{Reason: "no object found", Context: snippet(raw)}
	}
	text = text[start:]

	// Tolerate commentary after the object
	end := strings.LastIndex(text, "}")
	if end == -1 {
		// Not a single brace was closed: the whole object was cut off.
		return nil, &domain.MalformedResponseError{
			Reason:       "truncated object",
			BraceDeficit: strings.Count(text, "{"),
			Context:      snippet(text),
		}
	}
	text = text[:end+1]

	// Unequal brace counts mean the model ran out of tokens mid-object.
	// Fail rather than hand back a partial object.
	deficit := strings.Count(text, "{") - strings.Count(text, "}")
	if deficit != 0 {
		return nil, &domain.MalformedResponseError{
			Reason:       "truncated object",
			BraceDeficit: deficit,
			Context:      snippet(text),
		}
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, &domain.MalformedResponseError{
			Reason:  "invalid JSON",
			Context: snippet(text),
			Err:     err,
		}
	}

	return obj, nil
}

// stripCodeFence removes a leading/trailing triple-backtick fence with an
// optional language tag ("```json").
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}

	rest := text[3:]
	// Drop the language tag up to the first newline
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		rest = rest[nl+1:]
	}
	rest = strings.TrimRight(rest, " \t\r\n")
	rest = strings.TrimSuffix(rest, "```")
	return strings.TrimSpace(rest)
}

// snippet returns the first ~100 chars of text for error diagnostics.
func snippet(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > 100 {
		return text[:100]
	}
	return text
}
