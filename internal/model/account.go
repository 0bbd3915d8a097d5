package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account represents a business account stored in the database.
// Accounts form a forest within a tenant: ParentID is a same-tenant
// back-reference and never implies ownership or cascading deletion.
type Account struct {
	ID       string  `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID string  `json:"tenant_id" gorm:"type:varchar(36);index;not null"` // For multi-tenancy
	ParentID *string `json:"parent_id" gorm:"type:varchar(36);index"`
	Name     string  `json:"name" gorm:"type:varchar(100);not null"`
	// NameLower backs the per-tenant case-insensitive name lookup.
	// Maintained in BeforeSave.
	NameLower  string            `json:"-" gorm:"type:varchar(100);index:idx_tenant_name_lower"`
	OwnerID    string            `json:"owner_id" gorm:"type:varchar(36);index"`
	Status     string            `json:"status" gorm:"type:varchar(50);default:'active'"`
	Tags       []string          `json:"tags" gorm:"serializer:json"`
	Attributes map[string]string `json:"attributes,omitempty" gorm:"serializer:json"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	DeletedAt  gorm.DeletedAt    `json:"-" gorm:"index"`
}

// BeforeCreate assigns an ID when the caller did not provide one.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = "active"
	}
	return nil
}

// BeforeSave keeps the case-insensitive name column in sync with Name.
func (a *Account) BeforeSave(tx *gorm.DB) error {
	a.NameLower = strings.ToLower(a.Name)
	return nil
}
