package usecase

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"prodboard-backend/pkg/ai"
)

// Scoring weights for the keyword pass. The 0.3 cutoff discards
// single-signal description matches so short/common titles do not produce
// false positives.
const (
	titleMatchScore       = 0.4
	descriptionMatchScore = 0.3
	identifierMatchScore  = 0.5
	matchScoreCutoff      = 0.3
	maxMatches            = 3
	rerankCandidates      = 5
	vectorCandidateLimit  = 50
)

// Match is one ranked correlation candidate.
type Match struct {
	ItemID string  `json:"item_id"`
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
}

// Correlator matches free-text email content against existing work items
// using a cheap, explainable keyword pass, and extracts status keywords
// and comment bodies from email text.
type Correlator struct {
	source CandidateSource
	model  ai.ModelClient // optional
	vector VectorSearcher // optional
}

// NewCorrelator creates a Correlator over the given candidate source.
func NewCorrelator(source CandidateSource) *Correlator {
	return &Correlator{source: source}
}

// SetModelClient enables the model-assisted re-rank and status extraction.
func (c *Correlator) SetModelClient(model ai.ModelClient) {
	c.model = model
}

// SetVectorSearcher enables semantic narrowing of the candidate set.
func (c *Correlator) SetVectorSearcher(vector VectorSearcher) {
	c.vector = vector
}

// FindMatches returns up to three candidates ranked by keyword score.
// Deterministic: same candidates and text always produce the same
// ordering and scores. The optional model-assisted re-rank over the top
// five is attempted for visibility but its verdict is deliberately
// ignored; the keyword order is authoritative.
func (c *Correlator) FindMatches(ctx context.Context, text, tenantID, moduleID string) ([]Match, error) {
	candidates, err := c.listCandidates(ctx, text, tenantID, moduleID)
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(text)
	var matches []Match
	for _, item := range candidates {
		score := 0.0
		if item.Title != "" && strings.Contains(lower, strings.ToLower(item.Title)) {
			score += titleMatchScore
		}
		if item.Description != "" && strings.Contains(lower, strings.ToLower(item.Description)) {
			score += descriptionMatchScore
		}
		if item.ID != "" && strings.Contains(text, item.ID) {
			score += identifierMatchScore
		}
		if score <= matchScoreCutoff {
			continue
		}
		matches = append(matches, Match{ItemID: item.ID, Title: item.Title, Score: score})
	}

	// Stable order: score descending, item id as tie-break
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ItemID < matches[j].ItemID
	})

	c.rerank(ctx, text, matches)

	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}
	return matches, nil
}

// listCandidates narrows the scope via vector search when available,
// falling back to the full scoped listing on any failure.
func (c *Correlator) listCandidates(ctx context.Context, text, tenantID, moduleID string) ([]WorkItemRef, error) {
	all, err := c.source.ListByScope(ctx, tenantID, moduleID)
	if err != nil {
		return nil, err
	}

	if c.vector == nil || len(all) <= vectorCandidateLimit {
		return all, nil
	}

	ids, err := c.vector.SearchWorkItems(ctx, tenantID, text, vectorCandidateLimit)
	if err != nil {
		log.Printf("[Correlator] Vector search failed, using full listing: %v", err)
		return all, nil
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var narrowed []WorkItemRef
	for _, item := range all {
		if wanted[item.ID] {
			narrowed = append(narrowed, item)
		}
	}
	if len(narrowed) == 0 {
		return all, nil
	}
	return narrowed, nil
}

// rerank asks the model which of the top candidates best matches the
// email. The verdict is logged when it disagrees with the keyword top but
// never changes the ordering: correlation is a convenience, not a
// correctness requirement, and the keyword pass stays explainable.
func (c *Correlator) rerank(ctx context.Context, text string, matches []Match) {
	if c.model == nil || len(matches) < 2 {
		return
	}

	top := matches
	if len(top) > rerankCandidates {
		top = top[:rerankCandidates]
	}

	var sb strings.Builder
	sb.WriteString("Which of these work items does the email below refer to? Reply with the item id only, or \"none\".\n\nItems:\n")
	for _, m := range top {
		fmt.Fprintf(&sb, "- %s: %s\n", m.ItemID, m.Title)
	}
	sb.WriteString("\nEmail:\n")
	sb.WriteString(truncateClean(text, maxPromptBody))

	resp, err := c.model.Complete(ctx, sb.String())
	if err != nil {
		log.Printf("[Correlator] Re-rank call failed (ignored): %v", err)
		return
	}

	verdict := strings.TrimSpace(resp.ExtractText())
	if verdict != "" && verdict != "none" && verdict != matches[0].ItemID {
		log.Printf("[Correlator] Model re-rank prefers %q over keyword top %q (keeping keyword order)", verdict, matches[0].ItemID)
	}
}

// Ordered status keyword table; first match wins.
var statusKeywords = []struct {
	keywords []string
	status   string
}{
	{[]string{"done", "completed", "finished"}, "done"},
	{[]string{"blocked", "stuck"}, "blocked"},
	{[]string{"in progress", "working on", "started"}, "in_progress"},
	{[]string{"todo", "pending"}, "todo"},
}

var validStatuses = map[string]bool{
	"done": true, "blocked": true, "in_progress": true, "todo": true,
}

// ExtractStatus pulls a work-item status out of email text. With a model
// client available the extraction is delegated to a prompt constrained to
// the four tokens; the keyword table is the fallback on any model error
// or unusable answer. Returns "" when no status is present.
func (c *Correlator) ExtractStatus(ctx context.Context, text string) string {
	if c.model != nil {
		prompt := fmt.Sprintf(`Does the email below state a status for a piece of work? Reply with exactly one token: done, blocked, in_progress, todo, or null.

Email:
%s`, truncateClean(text, maxPromptBody))

		resp, err := c.model.Complete(ctx, prompt)
		if err == nil {
			answer := strings.ToLower(strings.TrimSpace(resp.ExtractText()))
			if validStatuses[answer] {
				return answer
			}
			if answer == "null" {
				return ""
			}
			// Unusable answer: fall through to the keyword table
		} else {
			log.Printf("[Correlator] Status extraction call failed, using keyword table: %v", err)
		}
	}

	lower := strings.ToLower(text)
	for _, entry := range statusKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.status
			}
		}
	}
	return ""
}

const (
	commentMaxLen      = 1000
	commentMinLen      = 10
	commentFallbackLen = 500
)

var quoteHeaderPattern = regexp.MustCompile(`^On .+wrote:`)

var signatureMarkers = []string{"--", "Best regards", "Sent from"}

// ExtractComment trims an email body down to the sender's own words:
// quoted-reply lines, quote headers and signature blocks are stripped.
// If stripping leaves less than 10 characters (likely over-stripped),
// falls back to a prefix of the original text. Output is capped at 1000
// characters.
func (c *Correlator) ExtractComment(text string) string {
	var kept []string

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		// Everything after a quote header is the quoted thread
		if quoteHeaderPattern.MatchString(trimmed) {
			break
		}
		// Everything after a signature marker is the signature
		if isSignatureLine(trimmed) {
			break
		}
		if strings.HasPrefix(trimmed, ">") {
			continue
		}
		kept = append(kept, line)
	}

	comment := strings.TrimSpace(strings.Join(kept, "\n"))
	if len(comment) < commentMinLen {
		comment = strings.TrimSpace(text)
		if len(comment) > commentFallbackLen {
			comment = comment[:commentFallbackLen]
		}
	}
	if len(comment) > commentMaxLen {
		comment = comment[:commentMaxLen]
	}
	return comment
}

func isSignatureLine(line string) bool {
	for _, marker := range signatureMarkers {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	return false
}
