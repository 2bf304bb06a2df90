package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	cases := []struct {
		s1, s2 string
		want   int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"payment", "payment", 0},
		{"paymnet", "payment", 2}, // transposition counts as two edits
		{"Export", "export", 0},   // case-insensitive via normalization
	}
	for _, c := range cases {
		assert.Equal(t, c.want, LevenshteinDistance(c.s1, c.s2), "%q vs %q", c.s1, c.s2)
	}
}

func TestFuzzyMatch(t *testing.T) {
	t.Run("substring always matches", func(t *testing.T) {
		assert.True(t, FuzzyMatch("export", "CSV export button", 0))
	})

	t.Run("typo within threshold matches a word", func(t *testing.T) {
		assert.True(t, FuzzyMatch("exprot", "csv export button", 2))
		assert.False(t, FuzzyMatch("exprot", "csv export button", 0))
	})

	t.Run("word prefix matches", func(t *testing.T) {
		assert.True(t, FuzzyMatch("exp", "export the data", 0))
	})

	t.Run("unrelated text does not match", func(t *testing.T) {
		assert.False(t, FuzzyMatch("payment", "calendar sync issues galore", 2))
	})
}

func TestCalculateRelevanceScore(t *testing.T) {
	t.Run("title match outweighs description match", func(t *testing.T) {
		inTitle := CalculateRelevanceScore("payment", "Payment gateway timeout", "")
		inDesc := CalculateRelevanceScore("payment", "Gateway timeout", "affects payment processing")
		assert.Greater(t, inTitle, inDesc)
		assert.Greater(t, inDesc, 0.0)
	})

	t.Run("whole-word title match earns the bonus", func(t *testing.T) {
		word := CalculateRelevanceScore("payment", "payment gateway", "")
		partial := CalculateRelevanceScore("payment", "paymentgateway", "")
		assert.Greater(t, word, partial)
	})

	t.Run("no signal scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, CalculateRelevanceScore("payment", "calendar", "unrelated"))
	})
}

func TestFuzzyMatchItem(t *testing.T) {
	t.Run("matches on title or description", func(t *testing.T) {
		assert.True(t, FuzzyMatchItem("export", "CSV export", ""))
		assert.True(t, FuzzyMatchItem("export", "Download", "adds an export button"))
		assert.False(t, FuzzyMatchItem("export", "Calendar sync", "recurring event handling"))
	})

	t.Run("short queries get a tighter threshold", func(t *testing.T) {
		// a two-edit typo is tolerated for long queries but not short ones
		assert.True(t, FuzzyMatchItem("exporting", "exporitng data", ""))
		assert.False(t, FuzzyMatchItem("csv", "cvs export", ""))
	})
}
