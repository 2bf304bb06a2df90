package delivery

import (
	"net/http"

	"prodboard-backend/internal/tenant/dto"
	"prodboard-backend/internal/tenant/usecase"

	"github.com/gin-gonic/gin"
)

// TenantHandler handles tenant-related HTTP requests
type TenantHandler struct {
	tenantUsecase usecase.TenantUsecase
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenantUsecase usecase.TenantUsecase) *TenantHandler {
	return &TenantHandler{
		tenantUsecase: tenantUsecase,
	}
}

// CreateTenant registers a new tenant and returns its one-time API key
// POST /api/tenants
func (h *TenantHandler) CreateTenant(c *gin.Context) {
	var req dto.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	creds, err := h.tenantUsecase.CreateTenant(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, creds)
}

// IssueToken exchanges an API key for an access token
// POST /api/tenants/token
func (h *TenantHandler) IssueToken(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.tenantUsecase.IssueToken(c.Request.Context(), req.APIKey)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetCurrentTenant returns the authenticated tenant
// GET /api/tenants/me
func (h *TenantHandler) GetCurrentTenant(c *gin.Context) {
	tenantID := c.GetString("tenantID")

	tenant, err := h.tenantUsecase.GetTenant(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
		return
	}

	c.JSON(http.StatusOK, tenant)
}

// CreateModule creates a product module under the authenticated tenant
// POST /api/modules
func (h *TenantHandler) CreateModule(c *gin.Context) {
	tenantID := c.GetString("tenantID")

	var req dto.CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	module, err := h.tenantUsecase.CreateModule(c.Request.Context(), tenantID, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, module)
}

// ListModules lists the authenticated tenant's modules
// GET /api/modules
func (h *TenantHandler) ListModules(c *gin.Context) {
	tenantID := c.GetString("tenantID")

	modules, err := h.tenantUsecase.ListModules(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"modules": modules,
		"count":   len(modules),
	})
}
