package usecase

import (
	"strings"
	"testing"

	"prodboard-backend/internal/triage/domain"
	"prodboard-backend/pkg/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeModelJSON(t *testing.T) {
	t.Run("bare object passes through", func(t *testing.T) {
		obj, err := SanitizeModelJSON(`{"category": "task", "confidence": 0.9}`)
		require.NoError(t, err)
		assert.Equal(t, "task", obj["category"])
		assert.Equal(t, 0.9, obj["confidence"])
	})

	t.Run("strips code fence with language tag", func(t *testing.T) {
		obj, err := SanitizeModelJSON("```json\n{\"category\": \"feature\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, "feature", obj["category"])
	})

	t.Run("strips bare code fence", func(t *testing.T) {
		obj, err := SanitizeModelJSON("```\n{\"category\": \"response\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, "response", obj["category"])
	})

	t.Run("strips BOM and zero-width characters", func(t *testing.T) {
		obj, err := SanitizeModelJSON("\uFEFF\u200B{\"category\": \"task\"}")
		require.NoError(t, err)
		assert.Equal(t, "task", obj["category"])
	})

	t.Run("tolerates prose before and after the object", func(t *testing.T) {
		raw := "Sure! Here is the classification:\n{\"category\": \"task\"}\nLet me know if you need anything else."
		obj, err := SanitizeModelJSON(raw)
		require.NoError(t, err)
		assert.Equal(t, "task", obj["category"])
	})

	t.Run("nested objects survive", func(t *testing.T) {
		obj, err := SanitizeModelJSON(`text {"a": {"b": {"c": 1}}} text`)
		require.NoError(t, err)
		inner := obj["a"].(map[string]interface{})
		assert.Contains(t, inner, "b")
	})

	t.Run("no object at all", func(t *testing.T) {
		_, err := SanitizeModelJSON("I could not classify this email.")
		var malformed *domain.MalformedResponseError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "no object found", malformed.Reason)
		assert.Zero(t, malformed.BraceDeficit)
	})

	t.Run("truncated object reports brace deficit", func(t *testing.T) {
		_, err := SanitizeModelJSON(`{"category": "task", "fields": {"title": "x"}`)
		var malformed *domain.MalformedResponseError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "truncated object", malformed.Reason)
		assert.Equal(t, 1, malformed.BraceDeficit)
	})

	t.Run("response cut off before any closing brace", func(t *testing.T) {
		_, err := SanitizeModelJSON(`{"category": "task", "fields": {"title": "x"`)
		var malformed *domain.MalformedResponseError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "truncated object", malformed.Reason)
		assert.Equal(t, 2, malformed.BraceDeficit)
	})

	t.Run("balanced braces but invalid JSON", func(t *testing.T) {
		_, err := SanitizeModelJSON(`{category: task}`)
		var malformed *domain.MalformedResponseError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "invalid JSON", malformed.Reason)
		assert.Error(t, malformed.Unwrap())
	})

	t.Run("error context is capped at 100 chars", func(t *testing.T) {
		_, err := SanitizeModelJSON(strings.Repeat("x", 500))
		var malformed *domain.MalformedResponseError
		require.ErrorAs(t, err, &malformed)
		assert.LessOrEqual(t, len(malformed.Context), 100)
	})
}

func TestSanitizeResponse(t *testing.T) {
	t.Run("flattens a text response", func(t *testing.T) {
		obj, err := SanitizeResponse(ai.TextResponse(`{"category": "no_action"}`))
		require.NoError(t, err)
		assert.Equal(t, "no_action", obj["category"])
	})

	t.Run("nil response is malformed", func(t *testing.T) {
		_, err := SanitizeResponse(nil)
		var malformed *domain.MalformedResponseError
		require.ErrorAs(t, err, &malformed)
	})
}
