package usecase

import (
	"context"

	"prodboard-backend/internal/triage/domain"
)

// WorkItemRef is the minimal view of an existing work item the correlator
// needs: identity plus the text it matches against.
type WorkItemRef struct {
	ID          string
	Title       string
	Description string
}

// CandidateSource lists existing work items scoped by tenant/module for
// correlation. Read-only: the correlator never writes work items.
type CandidateSource interface {
	ListByScope(ctx context.Context, tenantID, moduleID string) ([]WorkItemRef, error)
}

// ReferenceValidator answers definite exists/not-exists questions for the
// foreign references a classification may carry.
type ReferenceValidator interface {
	TenantExists(ctx context.Context, id string) (bool, error)
	ModuleExists(ctx context.Context, id string) (bool, error)
	WorkItemExists(ctx context.Context, id string) (bool, error)
}

// TenantChecker is the tenant-side half of ReferenceValidator.
type TenantChecker interface {
	TenantExists(ctx context.Context, id string) (bool, error)
	ModuleExists(ctx context.Context, id string) (bool, error)
}

// WorkItemChecker is the work-item-side half of ReferenceValidator.
type WorkItemChecker interface {
	WorkItemExists(ctx context.Context, id string) (bool, error)
}

type compositeValidator struct {
	TenantChecker
	WorkItemChecker
}

// NewReferenceValidator combines the tenant-side and work-item-side
// existence checks into one ReferenceValidator.
func NewReferenceValidator(tenants TenantChecker, items WorkItemChecker) ReferenceValidator {
	return &compositeValidator{TenantChecker: tenants, WorkItemChecker: items}
}

// VectorSearcher narrows the correlation candidate set via semantic
// search. Optional and strictly best-effort: any failure falls back to
// the full candidate listing.
type VectorSearcher interface {
	SearchWorkItems(ctx context.Context, tenantID, query string, limit int) ([]string, error)
}

// Notifier pushes a best-effort notification when an outcome is created.
// Implementations must never block or fail the triage path.
type Notifier interface {
	NotifyOutcome(ctx context.Context, outcome *domain.TriageOutcome)
}

// WorkItemWriter executes the action an approved outcome implies.
// Implemented by the work-item feature; the triage workflow itself only
// ever creates pending/error outcomes.
type WorkItemWriter interface {
	CreateFromTriage(ctx context.Context, tenantID, outcomeID string, category domain.Category, fields domain.ExtractedFields) (string, error)
	ApplyCorrelation(ctx context.Context, workItemID, status, comment string) error
}

// TriageResult is what a caller gets back for one processed message:
// either a concrete outcome (possibly with error status) or an explicit
// "no action required" signal. Never both, never neither.
type TriageResult struct {
	Outcome *domain.TriageOutcome `json:"outcome,omitempty"`
	Skipped bool                  `json:"skipped"` // true when classified no_action
}

// TriageUsecase is the triage feature's public surface.
type TriageUsecase interface {
	// ProcessMessage runs the full triage workflow for one source message.
	// Idempotent per source id: re-processing an already-triaged message
	// returns the stored outcome without creating a duplicate.
	ProcessMessage(ctx context.Context, tenantID, sourceID string) (*TriageResult, error)

	GetOutcome(ctx context.Context, tenantID, outcomeID string) (*domain.TriageOutcome, error)
	ListOutcomes(ctx context.Context, tenantID string, status *domain.OutcomeStatus, limit, offset int) ([]*domain.TriageOutcome, int64, error)

	// ApproveOutcome executes the pending outcome's action (create work
	// item, apply correlation, or send the suggested reply) and moves it
	// to the matching terminal state.
	ApproveOutcome(ctx context.Context, tenantID, outcomeID string) (*domain.TriageOutcome, error)
	RejectOutcome(ctx context.Context, tenantID, outcomeID string) (*domain.TriageOutcome, error)

	// SetWorkItemWriter sets the writer approvals go through
	SetWorkItemWriter(writer WorkItemWriter)

	// SetNotifier sets the outcome notification sink (optional)
	SetNotifier(notifier Notifier)
}
