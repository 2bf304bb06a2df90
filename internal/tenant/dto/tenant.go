package dto

import "prodboard-backend/internal/tenant/domain"

// CreateTenantRequest represents the request body for registering a tenant
type CreateTenantRequest struct {
	Name string `json:"name" binding:"required"`
}

// TenantCredentials is returned once at tenant creation. The APIKey is
// not recoverable afterwards.
type TenantCredentials struct {
	Tenant *domain.Tenant `json:"tenant"`
	APIKey string         `json:"api_key"`
}

// TokenRequest exchanges an API key for a short-lived access token
type TokenRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// TokenResponse represents the authentication response
type TokenResponse struct {
	AccessToken string         `json:"access_token"`
	Tenant      *domain.Tenant `json:"tenant"`
}

// CreateModuleRequest represents the request body for creating a module
type CreateModuleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}
