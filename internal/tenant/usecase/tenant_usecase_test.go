package usecase

import (
	"context"
	"strings"
	"testing"

	"prodboard-backend/internal/tenant/domain"
	"prodboard-backend/internal/tenant/dto"
	"prodboard-backend/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTenantRepo struct {
	tenants map[string]*domain.Tenant
	modules map[string]*domain.Module
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{
		tenants: make(map[string]*domain.Tenant),
		modules: make(map[string]*domain.Module),
	}
}

func (r *fakeTenantRepo) Create(ctx context.Context, tenant *domain.Tenant) error {
	r.tenants[tenant.ID] = tenant
	return nil
}

func (r *fakeTenantRepo) FindByID(ctx context.Context, id string) (*domain.Tenant, error) {
	return r.tenants[id], nil
}

func (r *fakeTenantRepo) Update(ctx context.Context, tenant *domain.Tenant) error {
	r.tenants[tenant.ID] = tenant
	return nil
}

func (r *fakeTenantRepo) CreateModule(ctx context.Context, module *domain.Module) error {
	r.modules[module.ID] = module
	return nil
}

func (r *fakeTenantRepo) FindModuleByID(ctx context.Context, id string) (*domain.Module, error) {
	return r.modules[id], nil
}

func (r *fakeTenantRepo) FindModulesByTenant(ctx context.Context, tenantID string) ([]*domain.Module, error) {
	var out []*domain.Module
	for _, m := range r.modules {
		if m.TenantID == tenantID {
			out = append(out, m)
		}
	}
	return out, nil
}

func newTestTenantUsecase() (TenantUsecase, *fakeTenantRepo) {
	repo := newFakeTenantRepo()
	cfg := &config.Config{JWTSecret: "test-signing-secret"}
	return NewTenantUsecase(repo, cfg), repo
}

func TestTenantAPIKeys(t *testing.T) {
	ctx := context.Background()

	t.Run("create returns a one-time key and stores only a hash", func(t *testing.T) {
		uc, repo := newTestTenantUsecase()

		creds, err := uc.CreateTenant(ctx, &dto.CreateTenantRequest{Name: "Acme"})
		require.NoError(t, err)
		require.NotNil(t, creds.Tenant)

		tenantID, secret, found := strings.Cut(creds.APIKey, ".")
		require.True(t, found)
		assert.Equal(t, creds.Tenant.ID, tenantID)
		assert.NotEmpty(t, secret)

		stored := repo.tenants[tenantID]
		require.NotNil(t, stored)
		assert.NotContains(t, stored.APIKeyHash, secret)
	})

	t.Run("authenticate round trip", func(t *testing.T) {
		uc, _ := newTestTenantUsecase()
		creds, err := uc.CreateTenant(ctx, &dto.CreateTenantRequest{Name: "Acme"})
		require.NoError(t, err)

		tenant, err := uc.Authenticate(ctx, creds.APIKey)
		require.NoError(t, err)
		assert.Equal(t, creds.Tenant.ID, tenant.ID)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		uc, _ := newTestTenantUsecase()
		creds, err := uc.CreateTenant(ctx, &dto.CreateTenantRequest{Name: "Acme"})
		require.NoError(t, err)

		_, err = uc.Authenticate(ctx, creds.Tenant.ID+".not-the-secret")
		assert.Error(t, err)
	})

	t.Run("malformed keys are rejected", func(t *testing.T) {
		uc, _ := newTestTenantUsecase()
		for _, key := range []string{"", "no-dot", ".secret-only", "tenant-only."} {
			_, err := uc.Authenticate(ctx, key)
			assert.Error(t, err, "key: %q", key)
		}
	})

	t.Run("unknown tenant id is rejected", func(t *testing.T) {
		uc, _ := newTestTenantUsecase()
		_, err := uc.Authenticate(ctx, "ghost.some-secret")
		assert.Error(t, err)
	})
}

func TestAccessTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("issue and validate round trip", func(t *testing.T) {
		uc, _ := newTestTenantUsecase()
		creds, err := uc.CreateTenant(ctx, &dto.CreateTenantRequest{Name: "Acme"})
		require.NoError(t, err)

		resp, err := uc.IssueToken(ctx, creds.APIKey)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)

		tenant, err := uc.ValidateToken(ctx, resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, creds.Tenant.ID, tenant.ID)
	})

	t.Run("tampered token is rejected", func(t *testing.T) {
		uc, _ := newTestTenantUsecase()
		creds, err := uc.CreateTenant(ctx, &dto.CreateTenantRequest{Name: "Acme"})
		require.NoError(t, err)

		resp, err := uc.IssueToken(ctx, creds.APIKey)
		require.NoError(t, err)

		_, err = uc.ValidateToken(ctx, resp.AccessToken+"x")
		assert.Error(t, err)
	})

	t.Run("token from another signing secret is rejected", func(t *testing.T) {
		uc1, repo := newTestTenantUsecase()
		creds, err := uc1.CreateTenant(ctx, &dto.CreateTenantRequest{Name: "Acme"})
		require.NoError(t, err)
		resp, err := uc1.IssueToken(ctx, creds.APIKey)
		require.NoError(t, err)

		uc2 := NewTenantUsecase(repo, &config.Config{JWTSecret: "different-secret"})
		_, err = uc2.ValidateToken(ctx, resp.AccessToken)
		assert.Error(t, err)
	})

	t.Run("invalid API key yields no token", func(t *testing.T) {
		uc, _ := newTestTenantUsecase()
		_, err := uc.IssueToken(ctx, "ghost.secret")
		assert.Error(t, err)
	})
}

func TestModules(t *testing.T) {
	ctx := context.Background()

	t.Run("create and list under a tenant", func(t *testing.T) {
		uc, _ := newTestTenantUsecase()
		creds, err := uc.CreateTenant(ctx, &dto.CreateTenantRequest{Name: "Acme"})
		require.NoError(t, err)

		module, err := uc.CreateModule(ctx, creds.Tenant.ID, &dto.CreateModuleRequest{Name: "Billing"})
		require.NoError(t, err)
		assert.Equal(t, creds.Tenant.ID, module.TenantID)

		modules, err := uc.ListModules(ctx, creds.Tenant.ID)
		require.NoError(t, err)
		require.Len(t, modules, 1)
		assert.Equal(t, "Billing", modules[0].Name)
	})

	t.Run("module creation requires an existing tenant", func(t *testing.T) {
		uc, _ := newTestTenantUsecase()
		_, err := uc.CreateModule(ctx, "ghost", &dto.CreateModuleRequest{Name: "Billing"})
		assert.Error(t, err)
	})

	t.Run("existence checks back the triage validator", func(t *testing.T) {
		uc, _ := newTestTenantUsecase()
		creds, err := uc.CreateTenant(ctx, &dto.CreateTenantRequest{Name: "Acme"})
		require.NoError(t, err)
		module, err := uc.CreateModule(ctx, creds.Tenant.ID, &dto.CreateModuleRequest{Name: "Billing"})
		require.NoError(t, err)

		exists, err := uc.TenantExists(ctx, creds.Tenant.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = uc.ModuleExists(ctx, module.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = uc.TenantExists(ctx, "ghost")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
