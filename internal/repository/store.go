package repository

import (
	"context"
	"errors"

	"account-service/internal/model"
)

var (
	// ErrNotFound is returned when an account doesn't exist for the tenant
	// or has been soft-deleted.
	ErrNotFound = errors.New("account not found")

	// ErrTenantRequired is returned when a store method is called without a
	// tenant ID. Every call site must carry one; an empty tenant ID is a
	// programming error, never a silent "all tenants" default.
	ErrTenantRequired = errors.New("tenant ID is required")
)

// AccountStore defines the persistence interface for accounts.
//
// Every method takes the caller's tenant ID and scopes the underlying query
// with it; soft-deleted rows are always filtered out. No method bypasses
// either filter.
type AccountStore interface {
	// Find returns the account with the given ID, or ErrNotFound.
	Find(ctx context.Context, tenantID, id string) (*model.Account, error)

	// FindByName returns accounts whose name matches case-insensitively.
	FindByName(ctx context.Context, tenantID, name string) ([]model.Account, error)

	// ChildrenOf returns the direct, non-deleted children of the given
	// account, ordered by name ascending.
	ChildrenOf(ctx context.Context, tenantID, parentID string) ([]model.Account, error)

	// List returns all accounts for the tenant, optionally filtered by
	// status, ordered by name ascending.
	List(ctx context.Context, tenantID, status string) ([]model.Account, error)

	// Create persists a new account under the tenant.
	Create(ctx context.Context, tenantID string, account *model.Account) error

	// Update persists all mutable fields of the account. Returns
	// ErrNotFound when the account doesn't exist for the tenant.
	Update(ctx context.Context, tenantID string, account *model.Account) error

	// SoftDelete marks the account deleted. Returns ErrNotFound when the
	// account doesn't exist for the tenant.
	SoftDelete(ctx context.Context, tenantID, id string) error

	// Transaction runs fn against a store bound to a single database
	// transaction, committing on nil and rolling back on error.
	Transaction(ctx context.Context, fn func(AccountStore) error) error
}
