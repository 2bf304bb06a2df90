package domain

import "time"

// Tenant is a customer organization. All work items, modules and triage
// outcomes are scoped to exactly one tenant.
type Tenant struct {
	ID   string `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null"`

	// bcrypt hash of the API key secret; the raw key is shown once at
	// creation and never stored
	APIKeyHash string `json:"-" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Module is a product area within a tenant, used to narrow correlation
// scope and to group work items.
type Module struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	TenantID    string    `json:"tenant_id" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
