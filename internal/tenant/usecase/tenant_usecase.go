package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"prodboard-backend/internal/tenant/domain"
	"prodboard-backend/internal/tenant/dto"
	"prodboard-backend/internal/tenant/repository"
	"prodboard-backend/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenExpiry = 24 * time.Hour

// TenantUsecase defines the interface for tenant business logic. It also
// implements the tenant-side reference checks the triage workflow uses.
type TenantUsecase interface {
	// CreateTenant registers a tenant and returns its one-time API key
	CreateTenant(ctx context.Context, req *dto.CreateTenantRequest) (*dto.TenantCredentials, error)

	// IssueToken exchanges a valid API key for a signed access token
	IssueToken(ctx context.Context, apiKey string) (*dto.TokenResponse, error)

	// Authenticate resolves an API key to its tenant
	Authenticate(ctx context.Context, apiKey string) (*domain.Tenant, error)

	// ValidateToken resolves a signed access token to its tenant
	ValidateToken(ctx context.Context, tokenString string) (*domain.Tenant, error)

	// GetTenant retrieves a tenant by ID
	GetTenant(ctx context.Context, id string) (*domain.Tenant, error)

	// CreateModule creates a product module under a tenant
	CreateModule(ctx context.Context, tenantID string, req *dto.CreateModuleRequest) (*domain.Module, error)

	// ListModules lists a tenant's modules
	ListModules(ctx context.Context, tenantID string) ([]*domain.Module, error)

	// TenantExists reports whether a tenant id refers to a stored tenant
	TenantExists(ctx context.Context, id string) (bool, error)

	// ModuleExists reports whether a module id refers to a stored module
	ModuleExists(ctx context.Context, id string) (bool, error)
}

// tenantUsecase implements TenantUsecase
type tenantUsecase struct {
	tenantRepo repository.TenantRepository
	config     *config.Config
}

// NewTenantUsecase creates a new instance of tenantUsecase
func NewTenantUsecase(tenantRepo repository.TenantRepository, cfg *config.Config) TenantUsecase {
	return &tenantUsecase{
		tenantRepo: tenantRepo,
		config:     cfg,
	}
}

// CreateTenant registers a tenant. The returned API key has the form
// "<tenant_id>.<secret>"; only the bcrypt hash of the secret is stored,
// so the key cannot be recovered later.
func (u *tenantUsecase) CreateTenant(ctx context.Context, req *dto.CreateTenantRequest) (*dto.TenantCredentials, error) {
	secret := uuid.New().String()
	hash, err := repository.HashAPIKey(secret)
	if err != nil {
		return nil, err
	}

	tenant := &domain.Tenant{
		ID:         uuid.New().String(),
		Name:       req.Name,
		APIKeyHash: hash,
	}
	if err := u.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, err
	}

	return &dto.TenantCredentials{
		Tenant: tenant,
		APIKey: tenant.ID + "." + secret,
	}, nil
}

// Authenticate splits the API key into tenant id and secret, then checks
// the secret against the stored hash. The embedded tenant id avoids
// comparing the secret against every tenant's hash.
func (u *tenantUsecase) Authenticate(ctx context.Context, apiKey string) (*domain.Tenant, error) {
	tenantID, secret, found := strings.Cut(apiKey, ".")
	if !found || tenantID == "" || secret == "" {
		return nil, errors.New("invalid API key")
	}

	tenant, err := u.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil || !repository.CheckAPIKey(secret, tenant.APIKeyHash) {
		return nil, errors.New("invalid API key")
	}

	return tenant, nil
}

func (u *tenantUsecase) IssueToken(ctx context.Context, apiKey string) (*dto.TokenResponse, error) {
	tenant, err := u.Authenticate(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	claims := jwt.MapClaims{
		"tenant_id": tenant.ID,
		"exp":       time.Now().Add(accessTokenExpiry).Unix(),
		"iat":       time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(u.config.JWTSecret))
	if err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken: signed,
		Tenant:      tenant,
	}, nil
}

func (u *tenantUsecase) ValidateToken(ctx context.Context, tokenString string) (*domain.Tenant, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	tenantID, ok := claims["tenant_id"].(string)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	tenant, err := u.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, errors.New("tenant not found")
	}

	return tenant, nil
}

func (u *tenantUsecase) GetTenant(ctx context.Context, id string) (*domain.Tenant, error) {
	tenant, err := u.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, errors.New("tenant not found")
	}
	return tenant, nil
}

func (u *tenantUsecase) CreateModule(ctx context.Context, tenantID string, req *dto.CreateModuleRequest) (*domain.Module, error) {
	if _, err := u.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	module := &domain.Module{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := u.tenantRepo.CreateModule(ctx, module); err != nil {
		return nil, err
	}
	return module, nil
}

func (u *tenantUsecase) ListModules(ctx context.Context, tenantID string) ([]*domain.Module, error) {
	return u.tenantRepo.FindModulesByTenant(ctx, tenantID)
}

func (u *tenantUsecase) TenantExists(ctx context.Context, id string) (bool, error) {
	tenant, err := u.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return tenant != nil, nil
}

func (u *tenantUsecase) ModuleExists(ctx context.Context, id string) (bool, error) {
	module, err := u.tenantRepo.FindModuleByID(ctx, id)
	if err != nil {
		return false, err
	}
	return module != nil, nil
}
