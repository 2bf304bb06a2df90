package usecase

import (
	"context"

	triagedomain "prodboard-backend/internal/triage/domain"
	triage "prodboard-backend/internal/triage/usecase"
	"prodboard-backend/internal/workitem/domain"
)

// WorkItemUsecase defines the interface for work item business logic.
// It also implements the triage ports CandidateSource, WorkItemWriter and
// the work-item half of ReferenceValidator.
type WorkItemUsecase interface {
	// CreateWorkItem creates a new work item manually
	CreateWorkItem(ctx context.Context, tenantID string, req CreateRequest) (*domain.WorkItem, error)

	// GetWorkItemByID retrieves a work item by ID (with ownership check)
	GetWorkItemByID(ctx context.Context, tenantID, itemID string) (*domain.WorkItem, error)

	// GetTenantWorkItems retrieves work items for a tenant with optional status filter
	GetTenantWorkItems(ctx context.Context, tenantID string, status *string, limit, offset int) ([]*domain.WorkItem, int64, error)

	// UpdateWorkItem updates an existing work item
	UpdateWorkItem(ctx context.Context, tenantID, itemID string, updates UpdateRequest) (*domain.WorkItem, error)

	// DeleteWorkItem deletes a work item and its comments
	DeleteWorkItem(ctx context.Context, tenantID, itemID string) error

	// SearchWorkItems ranks a tenant's items by relevance to a free-text query
	SearchWorkItems(ctx context.Context, tenantID, query string, limit int) ([]*domain.WorkItem, error)

	// GetComments returns the comments on a work item
	GetComments(ctx context.Context, tenantID, itemID string) ([]*domain.Comment, error)

	// ListByScope lists candidate items for email correlation
	ListByScope(ctx context.Context, tenantID, moduleID string) ([]triage.WorkItemRef, error)

	// WorkItemExists reports whether an item id refers to a stored item
	WorkItemExists(ctx context.Context, id string) (bool, error)

	// CreateFromTriage materializes an approved feature/task outcome as a work item
	CreateFromTriage(ctx context.Context, tenantID, outcomeID string, category triagedomain.Category, fields triagedomain.ExtractedFields) (string, error)

	// ApplyCorrelation updates status and appends a comment from a correlated email
	ApplyCorrelation(ctx context.Context, workItemID, status, comment string) error

	// SetVectorStore sets the embedding store mirror (optional)
	SetVectorStore(store VectorStore)
}

// CreateRequest carries the fields for creating a work item
type CreateRequest struct {
	ModuleID    string  `json:"module_id"`
	Kind        string  `json:"kind"`
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"due_date"`
}

// UpdateRequest represents the fields that can be updated
type UpdateRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Status      *string `json:"status,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

// VectorStore mirrors work items into an embedding collection so the
// triage correlator can narrow large candidate sets semantically.
type VectorStore interface {
	UpsertWorkItem(ctx context.Context, tenantID, itemID, title, description string) error
	DeleteWorkItem(ctx context.Context, itemID string) error
}
