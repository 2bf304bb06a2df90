package repository

import (
	"context"
	"time"

	"prodboard-backend/internal/workitem/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormWorkItemRepository implements WorkItemRepository using GORM
type gormWorkItemRepository struct {
	db *gorm.DB
}

// NewGormWorkItemRepository creates a new GORM-based WorkItemRepository
func NewGormWorkItemRepository(db *gorm.DB) WorkItemRepository {
	db.AutoMigrate(&domain.WorkItem{}, &domain.Comment{})
	return &gormWorkItemRepository{db: db}
}

func (r *gormWorkItemRepository) Create(ctx context.Context, item *domain.WorkItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *gormWorkItemRepository) FindByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	var item domain.WorkItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// FindByScope returns every item of a tenant, narrowed to one module when
// moduleID is non-empty. No pagination: this backs candidate listing for
// correlation, which needs the full scope.
func (r *gormWorkItemRepository) FindByScope(ctx context.Context, tenantID, moduleID string) ([]*domain.WorkItem, error) {
	var items []*domain.WorkItem
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if moduleID != "" {
		query = query.Where("module_id = ?", moduleID)
	}
	err := query.Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *gormWorkItemRepository) FindByTenant(ctx context.Context, tenantID string, status *domain.WorkItemStatus, limit, offset int) ([]*domain.WorkItem, int64, error) {
	var items []*domain.WorkItem
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.WorkItem{}).Where("tenant_id = ?", tenantID)

	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Due items first, then most recently created
	err := query.Order("CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date ASC, created_at DESC").
		Limit(limit).Offset(offset).Find(&items).Error

	return items, total, err
}

func (r *gormWorkItemRepository) Update(ctx context.Context, item *domain.WorkItem) error {
	item.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *gormWorkItemRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&domain.Comment{}, "work_item_id = ?", id).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&domain.WorkItem{}, "id = ?", id).Error
}

func (r *gormWorkItemRepository) AddComment(ctx context.Context, comment *domain.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	comment.CreatedAt = time.Now()
	return r.db.WithContext(ctx).Create(comment).Error
}

// FindDueReminders returns open items whose due date has passed the
// given cutoff and that have not been reminded about yet.
func (r *gormWorkItemRepository) FindDueReminders(ctx context.Context, before time.Time) ([]*domain.WorkItem, error) {
	var items []*domain.WorkItem
	err := r.db.WithContext(ctx).
		Where("due_date IS NOT NULL AND due_date <= ? AND reminder_sent = ? AND status != ?",
			before, false, domain.StatusDone).
		Find(&items).Error
	return items, err
}

func (r *gormWorkItemRepository) MarkReminderSent(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.WorkItem{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"reminder_sent": true,
			"updated_at":    time.Now(),
		}).Error
}

func (r *gormWorkItemRepository) FindComments(ctx context.Context, workItemID string) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	err := r.db.WithContext(ctx).Where("work_item_id = ?", workItemID).
		Order("created_at ASC").Find(&comments).Error
	return comments, err
}
