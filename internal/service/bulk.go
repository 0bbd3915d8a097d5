package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// BulkKind identifies the operation a bulk request applies to every ID.
type BulkKind string

const (
	BulkUpdateFields  BulkKind = "update-fields"
	BulkDelete        BulkKind = "delete"
	BulkReassignOwner BulkKind = "reassign-owner"
	BulkAddTags       BulkKind = "add-tags"
	BulkRemoveTags    BulkKind = "remove-tags"
	BulkSetStatus     BulkKind = "set-status"
)

// Per-item failure reasons reported in BulkItemResult.
const (
	ReasonNotFound    = "not_found"
	ReasonHasChildren = "has_children"
	ReasonConflict    = "conflict"
	ReasonInternal    = "internal_error"
)

// BulkRequest describes one bulk mutation over a set of account IDs within
// a single tenant. Which payload fields matter depends on Kind.
type BulkRequest struct {
	Kind    BulkKind           `json:"kind"`
	IDs     []string           `json:"ids"`
	Fields  UpdateAccountInput `json:"fields"`
	OwnerID string             `json:"owner_id"`
	Status  string             `json:"status"`
	Tags    []string           `json:"tags"`
}

// BulkItemResult records the outcome for a single ID.
type BulkItemResult struct {
	ID     string `json:"id"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// BulkResult aggregates a bulk run. SuccessCount+FailedCount always equals
// the number of IDs attempted; Items carries the per-ID breakdown.
type BulkResult struct {
	SuccessCount int              `json:"success_count"`
	FailedCount  int              `json:"failed_count"`
	Items        []BulkItemResult `json:"items"`
}

// BulkService fans one operation out over many accounts with per-item
// failure isolation: one ID failing (not found, validation, conflict) never
// aborts the remaining IDs, and a partially-succeeded batch is a normal
// outcome, not an error. There are no all-or-nothing semantics.
type BulkService struct {
	accounts *AccountService
	log      *zap.Logger
}

// NewBulkService creates a BulkService.
func NewBulkService(accounts *AccountService, log *zap.Logger) *BulkService {
	return &BulkService{accounts: accounts, log: log}
}

// Apply runs the request against every ID in input order.
//
// Preconditions on values shared across the whole batch (the new owner, the
// status, the tag list, the field set) are checked once up front and return
// a single ValidationError for the batch. Everything after that point is
// per-item: errors are converted into failure entries and the loop goes on.
//
// When ctx is cancelled mid-batch the already-attempted items keep their
// results and ctx.Err() is returned, so a truncated run is never mistaken
// for a complete one.
func (s *BulkService) Apply(ctx context.Context, tenantID string, req BulkRequest) (*BulkResult, error) {
	if len(req.IDs) == 0 {
		return nil, newValidationError(RuleMissingField, "ids are required")
	}
	if err := s.checkPreconditions(req); err != nil {
		return nil, err
	}

	result := &BulkResult{Items: make([]BulkItemResult, 0, len(req.IDs))}
	for _, id := range req.IDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := s.applyOne(ctx, tenantID, id, req); err != nil {
			result.FailedCount++
			result.Items = append(result.Items, BulkItemResult{ID: id, Reason: failureReason(err)})
			s.log.Debug("bulk item failed",
				zap.String("account_id", id),
				zap.String("tenant_id", tenantID),
				zap.String("kind", string(req.Kind)),
				zap.Error(err))
			continue
		}
		result.SuccessCount++
		result.Items = append(result.Items, BulkItemResult{ID: id, OK: true})
	}

	s.log.Info("bulk operation finished",
		zap.String("tenant_id", tenantID),
		zap.String("kind", string(req.Kind)),
		zap.Int("success_count", result.SuccessCount),
		zap.Int("failed_count", result.FailedCount))
	return result, nil
}

func (s *BulkService) checkPreconditions(req BulkRequest) error {
	switch req.Kind {
	case BulkUpdateFields:
		if req.Fields.Empty() {
			return newValidationError(RuleMissingField, "fields are required")
		}
	case BulkReassignOwner:
		if req.OwnerID == "" {
			return newValidationError(RuleMissingField, "owner_id is required")
		}
	case BulkSetStatus:
		if req.Status == "" {
			return newValidationError(RuleMissingField, "status is required")
		}
	case BulkAddTags, BulkRemoveTags:
		if len(req.Tags) == 0 {
			return newValidationError(RuleMissingField, "tags are required")
		}
	case BulkDelete:
		// No shared payload to validate.
	default:
		return newValidationError(RuleMissingField, "unknown bulk operation %q", req.Kind)
	}
	return nil
}

func (s *BulkService) applyOne(ctx context.Context, tenantID, id string, req BulkRequest) error {
	var err error
	switch req.Kind {
	case BulkUpdateFields:
		_, err = s.accounts.Update(ctx, tenantID, id, req.Fields)
	case BulkDelete:
		err = s.accounts.Delete(ctx, tenantID, id)
	case BulkReassignOwner:
		_, err = s.accounts.ReassignOwner(ctx, tenantID, id, req.OwnerID)
	case BulkAddTags:
		_, err = s.accounts.AddTags(ctx, tenantID, id, req.Tags)
	case BulkRemoveTags:
		_, err = s.accounts.RemoveTags(ctx, tenantID, id, req.Tags)
	case BulkSetStatus:
		_, err = s.accounts.SetStatus(ctx, tenantID, id, req.Status)
	}
	return err
}

// failureReason maps a per-item error to its itemized reason. Validation
// failures report the violated rule, which keeps "has_children" deletes
// distinguishable from plain "not_found".
func failureReason(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Rule
	}
	if IsNotFound(err) {
		return ReasonNotFound
	}
	if IsConflict(err) {
		return ReasonConflict
	}
	return ReasonInternal
}
