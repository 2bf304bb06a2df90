package usecase

import (
	"strings"
	"testing"

	"prodboard-backend/internal/triage/domain"

	"github.com/stretchr/testify/assert"
)

func TestBuildClassificationPrompt(t *testing.T) {
	msg := &domain.InboundMessage{
		From:     "alice@example.com",
		Subject:  "Please add dark mode",
		BodyText: "It would be great if the dashboard supported dark mode.",
	}

	t.Run("includes sender, subject and body", func(t *testing.T) {
		prompt := BuildClassificationPrompt(msg)
		assert.Contains(t, prompt, "From: alice@example.com")
		assert.Contains(t, prompt, "Subject: Please add dark mode")
		assert.Contains(t, prompt, "dark mode")
	})

	t.Run("names all five categories", func(t *testing.T) {
		prompt := BuildClassificationPrompt(msg)
		for _, category := range []string{"feature", "task", "response", "correlate_existing", "no_action"} {
			assert.Contains(t, prompt, `"`+category+`"`)
		}
	})

	t.Run("deterministic for the same message", func(t *testing.T) {
		assert.Equal(t, BuildClassificationPrompt(msg), BuildClassificationPrompt(msg))
	})

	t.Run("truncates oversized fields", func(t *testing.T) {
		big := &domain.InboundMessage{
			From:     strings.Repeat("f", 300),
			Subject:  strings.Repeat("s", 500),
			BodyText: strings.Repeat("b", 5000),
		}
		prompt := BuildClassificationPrompt(big)
		assert.Contains(t, prompt, strings.Repeat("f", 100))
		assert.NotContains(t, prompt, strings.Repeat("f", 101))
		assert.Contains(t, prompt, strings.Repeat("s", 200))
		assert.NotContains(t, prompt, strings.Repeat("s", 201))
		assert.Contains(t, prompt, strings.Repeat("b", 1500))
		assert.NotContains(t, prompt, strings.Repeat("b", 1501))
	})
}

func TestTruncateClean(t *testing.T) {
	t.Run("collapses internal whitespace", func(t *testing.T) {
		assert.Equal(t, "one two three", truncateClean("one\n\n  two\t three ", 100))
	})

	t.Run("truncates after collapsing", func(t *testing.T) {
		assert.Equal(t, "abc", truncateClean("  abcdef  ", 3))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", truncateClean("   ", 10))
	})
}
