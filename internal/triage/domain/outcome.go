package domain

import (
	"encoding/json"
	"time"
)

// OutcomeStatus is the lifecycle state of a persisted triage outcome.
// pending is the only non-terminal state; a record never returns to
// pending once it has left it.
type OutcomeStatus string

const (
	OutcomeStatusPending    OutcomeStatus = "pending"
	OutcomeStatusApproved   OutcomeStatus = "approved"
	OutcomeStatusRejected   OutcomeStatus = "rejected"
	OutcomeStatusCreated    OutcomeStatus = "created"
	OutcomeStatusCorrelated OutcomeStatus = "correlated"
	OutcomeStatusSent       OutcomeStatus = "sent"
	OutcomeStatusError      OutcomeStatus = "error"
)

// IsTerminal reports whether the status is a terminal lifecycle state.
func (s OutcomeStatus) IsTerminal() bool {
	return s != OutcomeStatusPending
}

// TriageOutcome is the persisted record of one triaged message. Exactly
// one row exists per distinct source message id; messages classified
// no_action persist nothing at all.
type TriageOutcome struct {
	ID              string        `json:"id" gorm:"primaryKey"`
	TenantID        string        `json:"tenant_id" gorm:"index"`
	SourceMessageID string        `json:"source_message_id" gorm:"uniqueIndex;not null"`
	ThreadID        string        `json:"thread_id,omitempty"`
	Category        Category      `json:"category" gorm:"not null"`
	ExtractedJSON   string        `json:"-" gorm:"column:extracted_fields;type:text"`
	Confidence      float64       `json:"confidence"`
	MatchedItemID   string        `json:"matched_item_id,omitempty" gorm:"index"`
	Status          OutcomeStatus `json:"status" gorm:"index;default:pending"`
	Error           string        `json:"error,omitempty"`

	// Denormalized copies of the message for audit/debugging
	Sender      string `json:"sender,omitempty"`
	Subject     string `json:"subject,omitempty"`
	BodySnippet string `json:"body_snippet,omitempty"`

	ReceivedAt  time.Time `json:"received_at"`
	ProcessedAt time.Time `json:"processed_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SetExtractedFields stores the classification field snapshot as JSON.
func (o *TriageOutcome) SetExtractedFields(fields ExtractedFields) {
	data, err := json.Marshal(fields)
	if err != nil {
		return
	}
	o.ExtractedJSON = string(data)
}

// ExtractedFields decodes the stored field snapshot. Returns the zero
// value when the snapshot is empty or unreadable.
func (o *TriageOutcome) ExtractedFields() ExtractedFields {
	var fields ExtractedFields
	if o.ExtractedJSON != "" {
		_ = json.Unmarshal([]byte(o.ExtractedJSON), &fields)
	}
	return fields
}
