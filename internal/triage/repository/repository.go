package repository

import (
	"context"

	"prodboard-backend/internal/triage/domain"
)

// OutcomeRepository is the persistence contract for triage outcomes.
// The uniqueness of SourceMessageID is enforced by the store: Create must
// return domain duplicate semantics (ErrDuplicateSource) when an outcome
// for the same source message already exists.
type OutcomeRepository interface {
	Create(ctx context.Context, outcome *domain.TriageOutcome) error
	FindByID(ctx context.Context, id string) (*domain.TriageOutcome, error)
	FindBySourceID(ctx context.Context, sourceMessageID string) (*domain.TriageOutcome, error)
	FindByTenant(ctx context.Context, tenantID string, status *domain.OutcomeStatus, limit, offset int) ([]*domain.TriageOutcome, int64, error)
	UpdateStatus(ctx context.Context, id string, status domain.OutcomeStatus) error
	// SetMatchedItem records the work item an approval created or acted on.
	SetMatchedItem(ctx context.Context, id, itemID string) error
}
