package notification

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DeviceToken is an FCM registration token belonging to a tenant's
// operator devices.
type DeviceToken struct {
	Token     string    `json:"token" gorm:"primaryKey"`
	TenantID  string    `json:"tenant_id" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenRepository defines the persistence contract for device tokens
type TokenRepository interface {
	Save(ctx context.Context, token *DeviceToken) error
	FindByTenant(ctx context.Context, tenantID string) ([]*DeviceToken, error)
	Delete(ctx context.Context, token string) error
}

type gormTokenRepository struct {
	db *gorm.DB
}

// NewGormTokenRepository creates a new GORM-based TokenRepository
func NewGormTokenRepository(db *gorm.DB) TokenRepository {
	db.AutoMigrate(&DeviceToken{})
	return &gormTokenRepository{db: db}
}

func (r *gormTokenRepository) Save(ctx context.Context, token *DeviceToken) error {
	token.CreatedAt = time.Now()
	// Re-registering the same token is a no-op update
	return r.db.WithContext(ctx).Save(token).Error
}

func (r *gormTokenRepository) FindByTenant(ctx context.Context, tenantID string) ([]*DeviceToken, error) {
	var tokens []*DeviceToken
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&tokens).Error
	return tokens, err
}

func (r *gormTokenRepository) Delete(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Delete(&DeviceToken{}, "token = ?", token).Error
}
