package usecase

import (
	"fmt"
	"strings"

	"prodboard-backend/internal/triage/domain"
)

// Truncation limits keep prompt cost bounded and blunt prompt-injection
// attempts through oversized bodies.
const (
	maxPromptSubject = 200
	maxPromptBody    = 1500
	maxPromptSender  = 100
)

// BuildClassificationPrompt builds the deterministic classification prompt
// for one inbound email. Purely a string transform: same message in, same
// prompt out.
func BuildClassificationPrompt(msg *domain.InboundMessage) string {
	subject := truncateClean(msg.Subject, maxPromptSubject)
	body := truncateClean(msg.BodyText, maxPromptBody)
	sender := truncateClean(msg.From, maxPromptSender)

	return fmt.Sprintf(`You are the email triage assistant of a product-management tool. Classify the email below and extract structured fields.

Categories (pick exactly one):
- "feature": the sender requests new functionality
- "task": the sender describes concrete work to be done
- "response": the email needs a reply but no new work item
- "correlate_existing": the email refers to an already-tracked work item (status update, follow-up, comment)
- "no_action": newsletters, notifications, spam, anything needing no action at all

Respond with a JSON object and nothing else - no code fences, no text before the first "{". Fields:
{
  "category": "<one of the five categories>",
  "confidence": <0.0-1.0>,
  "title": "<short title, for feature/task>",
  "description": "<details, for feature/task>",
  "priority": "<high|medium|low, if stated>",
  "status": "<done|blocked|in_progress|todo, if stated>",
  "assignees": ["<names, if stated>"],
  "due_date": "<ISO 8601, if stated>",
  "reply_text": "<suggested reply, for response>",
  "tone": "<formal|neutral|friendly, for response>",
  "work_item_id": "<id of the referenced work item, if identifiable>",
  "module_id": "<id of the product module, if identifiable>",
  "comment": "<the sender's remark about an existing item, for correlate_existing>"
}
Omit fields you cannot fill.

From: %s
Subject: %s
Body:
%s`, sender, subject, body)
}

// truncateClean collapses internal whitespace/newlines to single spaces,
// then truncates to max chars.
func truncateClean(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > max {
		return s[:max]
	}
	return s
}
