package repository

import (
	"context"
	"errors"
	"time"

	"prodboard-backend/internal/tenant/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TenantRepository defines the persistence contract for tenants and
// their modules.
type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	FindByID(ctx context.Context, id string) (*domain.Tenant, error)
	Update(ctx context.Context, tenant *domain.Tenant) error

	CreateModule(ctx context.Context, module *domain.Module) error
	FindModuleByID(ctx context.Context, id string) (*domain.Module, error)
	FindModulesByTenant(ctx context.Context, tenantID string) ([]*domain.Module, error)
}

// tenantRepository implements TenantRepository using GORM
type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new instance of tenantRepository
func NewTenantRepository(db *gorm.DB) TenantRepository {
	db.AutoMigrate(&domain.Tenant{}, &domain.Module{})
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	tenant.CreatedAt = time.Now()
	tenant.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Create(tenant).Error
}

func (r *tenantRepository) FindByID(ctx context.Context, id string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	tenant.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(tenant).Error
}

func (r *tenantRepository) CreateModule(ctx context.Context, module *domain.Module) error {
	if module.ID == "" {
		module.ID = uuid.New().String()
	}
	module.CreatedAt = time.Now()
	module.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Create(module).Error
}

func (r *tenantRepository) FindModuleByID(ctx context.Context, id string) (*domain.Module, error) {
	var module domain.Module
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&module).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &module, nil
}

func (r *tenantRepository) FindModulesByTenant(ctx context.Context, tenantID string) ([]*domain.Module, error) {
	var modules []*domain.Module
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).
		Order("created_at ASC").Find(&modules).Error
	return modules, err
}

// HashAPIKey hashes an API key secret using bcrypt
func HashAPIKey(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckAPIKey compares an API key secret with a stored hash
func CheckAPIKey(secret, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	return err == nil
}
