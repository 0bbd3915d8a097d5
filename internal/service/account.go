package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"account-service/internal/model"
	"account-service/internal/repository"
	"account-service/internal/search"
)

// syncTimeout bounds the background search-sync publish so a slow broker
// cannot pile up goroutines.
const syncTimeout = 5 * time.Second

// CreateAccountInput carries the caller-supplied fields for a new account.
type CreateAccountInput struct {
	Name       string            `json:"name"`
	ParentID   *string           `json:"parent_id"`
	OwnerID    string            `json:"owner_id"`
	Status     string            `json:"status"`
	Tags       []string          `json:"tags"`
	Attributes map[string]string `json:"attributes"`
}

// UpdateAccountInput carries the updatable fields of an account. Nil
// pointers mean "leave unchanged".
type UpdateAccountInput struct {
	Name       *string           `json:"name"`
	OwnerID    *string           `json:"owner_id"`
	Status     *string           `json:"status"`
	Attributes map[string]string `json:"attributes"`
}

// Empty reports whether the input changes nothing.
func (in UpdateAccountInput) Empty() bool {
	return in.Name == nil && in.OwnerID == nil && in.Status == nil && in.Attributes == nil
}

// AccountService implements the single-account operations: create, read,
// update, tag mutation and soft delete. Hierarchy rules are delegated to
// the HierarchyService; every successful mutation is pushed to the search
// syncer on a best-effort basis.
type AccountService struct {
	store     repository.AccountStore
	hierarchy *HierarchyService
	syncer    search.Syncer
	log       *zap.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(store repository.AccountStore, hierarchy *HierarchyService, syncer search.Syncer, log *zap.Logger) *AccountService {
	return &AccountService{store: store, hierarchy: hierarchy, syncer: syncer, log: log}
}

// Create validates and persists a new account. The name must be unique
// within the tenant under case-insensitive comparison; an initial parent,
// when given, must resolve within the tenant.
func (s *AccountService) Create(ctx context.Context, tenantID string, in CreateAccountInput) (*model.Account, error) {
	if in.Name == "" {
		return nil, newValidationError(RuleMissingField, "name is required")
	}

	existing, err := s.store.FindByName(ctx, tenantID, in.Name)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, &ConflictError{Message: "an account with this name already exists for this tenant"}
	}

	if in.ParentID != nil {
		if _, err := s.store.Find(ctx, tenantID, *in.ParentID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, newValidationError(RuleParentNotFound, "parent account %q not found", *in.ParentID)
			}
			return nil, err
		}
	}

	account := &model.Account{
		Name:       in.Name,
		ParentID:   in.ParentID,
		OwnerID:    in.OwnerID,
		Status:     in.Status,
		Tags:       normalizeTags(in.Tags),
		Attributes: in.Attributes,
	}
	if err := s.store.Create(ctx, tenantID, account); err != nil {
		return nil, err
	}

	s.log.Info("account created",
		zap.String("account_id", account.ID),
		zap.String("name", account.Name),
		zap.String("tenant_id", tenantID))
	s.syncAsync(tenantID, account, search.ActionCreate)
	return account, nil
}

// Get returns one account.
func (s *AccountService) Get(ctx context.Context, tenantID, id string) (*model.Account, error) {
	account, err := s.store.Find(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, err
	}
	return account, nil
}

// List returns the tenant's accounts, optionally filtered by status.
func (s *AccountService) List(ctx context.Context, tenantID, status string) ([]model.Account, error) {
	return s.store.List(ctx, tenantID, status)
}

// Update applies the given field changes to one account. Renames re-check
// name uniqueness within the tenant.
func (s *AccountService) Update(ctx context.Context, tenantID, id string, in UpdateAccountInput) (*model.Account, error) {
	account, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && *in.Name != account.Name {
		if *in.Name == "" {
			return nil, newValidationError(RuleMissingField, "name cannot be empty")
		}
		existing, err := s.store.FindByName(ctx, tenantID, *in.Name)
		if err != nil {
			return nil, err
		}
		for _, e := range existing {
			if e.ID != id {
				return nil, &ConflictError{Message: "an account with this name already exists for this tenant"}
			}
		}
		account.Name = *in.Name
	}
	if in.OwnerID != nil {
		account.OwnerID = *in.OwnerID
	}
	if in.Status != nil {
		account.Status = *in.Status
	}
	if in.Attributes != nil {
		account.Attributes = in.Attributes
	}

	if err := s.persist(ctx, tenantID, account); err != nil {
		return nil, err
	}
	return account, nil
}

// ReassignOwner sets a new owner on the account. The owner must be
// non-empty; for bulk use this precondition is checked once per batch.
func (s *AccountService) ReassignOwner(ctx context.Context, tenantID, id, ownerID string) (*model.Account, error) {
	if ownerID == "" {
		return nil, newValidationError(RuleMissingField, "owner_id is required")
	}
	return s.Update(ctx, tenantID, id, UpdateAccountInput{OwnerID: &ownerID})
}

// SetStatus sets the account's status.
func (s *AccountService) SetStatus(ctx context.Context, tenantID, id, status string) (*model.Account, error) {
	if status == "" {
		return nil, newValidationError(RuleMissingField, "status is required")
	}
	return s.Update(ctx, tenantID, id, UpdateAccountInput{Status: &status})
}

// AddTags merges the given tags into the account's tag set.
//
// This is a read-modify-write without an optimistic lock token: concurrent
// tag mutations on the same account are last-write-wins. Accepted tradeoff,
// kept visible here rather than papered over.
func (s *AccountService) AddTags(ctx context.Context, tenantID, id string, tags []string) (*model.Account, error) {
	if len(tags) == 0 {
		return nil, newValidationError(RuleMissingField, "tags are required")
	}

	account, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	account.Tags = normalizeTags(append(append([]string{}, account.Tags...), tags...))
	if err := s.persist(ctx, tenantID, account); err != nil {
		return nil, err
	}
	return account, nil
}

// RemoveTags removes the given tags from the account's tag set. Same
// last-write-wins caveat as AddTags.
func (s *AccountService) RemoveTags(ctx context.Context, tenantID, id string, tags []string) (*model.Account, error) {
	if len(tags) == 0 {
		return nil, newValidationError(RuleMissingField, "tags are required")
	}

	account, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	drop := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		drop[t] = struct{}{}
	}
	kept := make([]string, 0, len(account.Tags))
	for _, t := range account.Tags {
		if _, ok := drop[t]; !ok {
			kept = append(kept, t)
		}
	}

	account.Tags = kept
	if err := s.persist(ctx, tenantID, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Reparent delegates to the hierarchy engine and publishes the change to
// the search syncer on success.
func (s *AccountService) Reparent(ctx context.Context, tenantID, id string, parentID *string) (*model.Account, error) {
	account, err := s.hierarchy.Reparent(ctx, tenantID, id, parentID)
	if err != nil {
		return nil, err
	}
	s.syncAsync(tenantID, account, search.ActionUpdate)
	return account, nil
}

// Delete soft-deletes the account. Accounts with non-deleted children are
// rejected; children must be reparented or removed first.
func (s *AccountService) Delete(ctx context.Context, tenantID, id string) error {
	if err := s.hierarchy.AssertDeletable(ctx, tenantID, id); err != nil {
		return err
	}

	account, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if err := s.store.SoftDelete(ctx, tenantID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{ID: id}
		}
		return err
	}

	s.log.Info("account deleted",
		zap.String("account_id", id),
		zap.String("tenant_id", tenantID))
	s.syncAsync(tenantID, account, search.ActionDelete)
	return nil
}

func (s *AccountService) persist(ctx context.Context, tenantID string, account *model.Account) error {
	if err := s.store.Update(ctx, tenantID, account); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{ID: account.ID}
		}
		return err
	}
	s.syncAsync(tenantID, account, search.ActionUpdate)
	return nil
}

// syncAsync hands the change to the search syncer in the background.
// Failures are logged at warn and never reach the caller: a mutation that
// committed is reported as committed regardless of what the indexer does.
func (s *AccountService) syncAsync(tenantID string, account *model.Account, action search.Action) {
	snapshot := *account
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		if err := s.syncer.Sync(ctx, tenantID, &snapshot, action); err != nil {
			s.log.Warn("search sync failed",
				zap.String("account_id", snapshot.ID),
				zap.String("tenant_id", tenantID),
				zap.String("action", string(action)),
				zap.Error(err))
		}
	}()
}

// normalizeTags sorts and deduplicates, giving tag columns set semantics.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return tags
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
