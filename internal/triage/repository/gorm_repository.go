package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prodboard-backend/internal/triage/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateSource is returned by Create when an outcome already exists
// for the same source message id.
var ErrDuplicateSource = errors.New("outcome already exists for source message")

// gormOutcomeRepository implements OutcomeRepository using GORM
type gormOutcomeRepository struct {
	db *gorm.DB
}

// NewGormOutcomeRepository creates a new GORM-based OutcomeRepository
func NewGormOutcomeRepository(db *gorm.DB) OutcomeRepository {
	// Auto-migrate the TriageOutcome model
	db.AutoMigrate(&domain.TriageOutcome{})
	return &gormOutcomeRepository{db: db}
}

func (r *gormOutcomeRepository) Create(ctx context.Context, outcome *domain.TriageOutcome) error {
	if outcome.ID == "" {
		outcome.ID = uuid.New().String()
	}
	outcome.CreatedAt = time.Now()
	outcome.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Create(outcome).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateSource
		}
		return err
	}
	return nil
}

func (r *gormOutcomeRepository) FindByID(ctx context.Context, id string) (*domain.TriageOutcome, error) {
	var outcome domain.TriageOutcome
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&outcome).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &outcome, nil
}

func (r *gormOutcomeRepository) FindBySourceID(ctx context.Context, sourceMessageID string) (*domain.TriageOutcome, error) {
	var outcome domain.TriageOutcome
	err := r.db.WithContext(ctx).Where("source_message_id = ?", sourceMessageID).First(&outcome).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &outcome, nil
}

func (r *gormOutcomeRepository) FindByTenant(ctx context.Context, tenantID string, status *domain.OutcomeStatus, limit, offset int) ([]*domain.TriageOutcome, int64, error) {
	var outcomes []*domain.TriageOutcome
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.TriageOutcome{}).Where("tenant_id = ?", tenantID)

	if status != nil {
		query = query.Where("status = ?", *status)
	}

	// Count total
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("processed_at DESC").Limit(limit).Offset(offset).Find(&outcomes).Error

	return outcomes, total, err
}

func (r *gormOutcomeRepository) UpdateStatus(ctx context.Context, id string, status domain.OutcomeStatus) error {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("outcome %s not found", id)
	}
	// Terminal states are final: a record never returns to pending and
	// never moves between terminal states.
	if existing.Status.IsTerminal() {
		return fmt.Errorf("outcome %s is already %s", id, existing.Status)
	}

	return r.db.WithContext(ctx).Model(&domain.TriageOutcome{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *gormOutcomeRepository) SetMatchedItem(ctx context.Context, id, itemID string) error {
	return r.db.WithContext(ctx).Model(&domain.TriageOutcome{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"matched_item_id": itemID,
			"updated_at":      time.Now(),
		}).Error
}
