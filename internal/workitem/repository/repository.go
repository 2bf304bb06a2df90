package repository

import (
	"context"
	"time"

	"prodboard-backend/internal/workitem/domain"
)

// WorkItemRepository defines the persistence contract for work items.
type WorkItemRepository interface {
	Create(ctx context.Context, item *domain.WorkItem) error
	FindByID(ctx context.Context, id string) (*domain.WorkItem, error)
	FindByScope(ctx context.Context, tenantID, moduleID string) ([]*domain.WorkItem, error)
	FindByTenant(ctx context.Context, tenantID string, status *domain.WorkItemStatus, limit, offset int) ([]*domain.WorkItem, int64, error)
	Update(ctx context.Context, item *domain.WorkItem) error
	Delete(ctx context.Context, id string) error
	AddComment(ctx context.Context, comment *domain.Comment) error
	FindComments(ctx context.Context, workItemID string) ([]*domain.Comment, error)

	FindDueReminders(ctx context.Context, before time.Time) ([]*domain.WorkItem, error)
	MarkReminderSent(ctx context.Context, id string) error
}
