package domain

import (
	"context"
	"time"
)

// InboundMessage is one raw email as delivered by the mail gateway.
// The triage core treats it as read-only input and never mutates it.
type InboundMessage struct {
	SourceID   string    `json:"source_id"` // provider message id
	ThreadID   string    `json:"thread_id"`
	From       string    `json:"from"`
	Subject    string    `json:"subject"`
	BodyText   string    `json:"body_text"`
	BodyHTML   string    `json:"body_html,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// MailGateway is the transport-side collaborator the triage workflow
// depends on. Implementations (Gmail, IMAP) must return a GatewayError
// on transport or auth failure; the workflow does not interpret
// provider-specific error codes.
type MailGateway interface {
	GetMessage(ctx context.Context, sourceID string) (*InboundMessage, error)
	SendReply(ctx context.Context, sourceID, threadID, text string, to, cc []string) (string, error)
	// MarkProcessed labels the source message as handled. Best-effort:
	// the workflow swallows its errors.
	MarkProcessed(ctx context.Context, sourceID string) error
}
