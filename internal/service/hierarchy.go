package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"account-service/internal/model"
	"account-service/internal/repository"
)

// DefaultMaxDepth bounds hierarchy traversals when no explicit limit is
// configured.
const DefaultMaxDepth = 32

// DescendantEntry is one account in a flattened hierarchy traversal.
type DescendantEntry struct {
	Account model.Account `json:"account"`
	Depth   int           `json:"depth"`
}

// TreeNode is one account in a nested hierarchy.
type TreeNode struct {
	Account  model.Account `json:"account"`
	Depth    int           `json:"depth"`
	Children []*TreeNode   `json:"children"`
}

// HierarchyService validates and navigates the parent/child forest of a
// tenant's accounts. All rule violations surface as ValidationError; they
// are deterministic and never retried.
type HierarchyService struct {
	store    repository.AccountStore
	log      *zap.Logger
	maxDepth int
}

// NewHierarchyService creates a HierarchyService. maxDepth <= 0 selects
// DefaultMaxDepth.
func NewHierarchyService(store repository.AccountStore, log *zap.Logger, maxDepth int) *HierarchyService {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &HierarchyService{store: store, log: log, maxDepth: maxDepth}
}

// Descendants returns the account rooted at rootID and everything reachable
// below it, computed by level-order traversal: the root at depth 0, its
// children at depth 1, and so on. Within the result, entries are ordered by
// depth ascending then name ascending. Traversal aborts with
// ErrDepthExceeded past the configured bound, which indicates malformed
// data rather than a caller mistake.
func (s *HierarchyService) Descendants(ctx context.Context, tenantID, rootID string) ([]DescendantEntry, error) {
	root, err := s.store.Find(ctx, tenantID, rootID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{ID: rootID}
		}
		return nil, err
	}

	entries := []DescendantEntry{{Account: *root, Depth: 0}}
	frontier := []model.Account{*root}
	depth := 0

	for len(frontier) > 0 {
		depth++
		if depth > s.maxDepth {
			s.log.Error("hierarchy traversal exceeded depth bound",
				zap.String("root_id", rootID),
				zap.String("tenant_id", tenantID),
				zap.Int("max_depth", s.maxDepth))
			return nil, fmt.Errorf("%w (root %s, max %d)", ErrDepthExceeded, rootID, s.maxDepth)
		}

		var next []model.Account
		for _, node := range frontier {
			children, err := s.store.ChildrenOf(ctx, tenantID, node.ID)
			if err != nil {
				return nil, err
			}
			next = append(next, children...)
		}

		// Each level is sorted by name as a whole, not per sibling group.
		sort.Slice(next, func(i, j int) bool {
			return next[i].NameLower < next[j].NameLower
		})
		for _, child := range next {
			entries = append(entries, DescendantEntry{Account: child, Depth: depth})
		}
		frontier = next
	}

	return entries, nil
}

// BuildTree nests the flat Descendants output into a tree via parent-id
// linkage. The returned root always has depth 0.
func (s *HierarchyService) BuildTree(ctx context.Context, tenantID, rootID string) (*TreeNode, error) {
	entries, err := s.Descendants(ctx, tenantID, rootID)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*TreeNode, len(entries))
	for _, e := range entries {
		nodes[e.Account.ID] = &TreeNode{Account: e.Account, Depth: e.Depth, Children: []*TreeNode{}}
	}

	root := nodes[rootID]
	for _, e := range entries {
		if e.Depth == 0 {
			continue
		}
		if e.Account.ParentID == nil {
			continue
		}
		if parent, ok := nodes[*e.Account.ParentID]; ok {
			parent.Children = append(parent.Children, nodes[e.Account.ID])
		}
	}

	return root, nil
}

// ValidateParent checks whether parentID may become the parent of childID.
// It fails with ValidationError when the candidate doesn't resolve within
// the tenant, equals the child itself, or is a descendant of the child
// (which would close a cycle). It has no side effects.
func (s *HierarchyService) ValidateParent(ctx context.Context, tenantID, childID, parentID string) error {
	if parentID == childID {
		return newValidationError(RuleSelfParent, "account cannot be its own parent")
	}

	if _, err := s.store.Find(ctx, tenantID, parentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newValidationError(RuleParentNotFound, "parent account %q not found", parentID)
		}
		return err
	}

	entries, err := s.Descendants(ctx, tenantID, childID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Account.ID == parentID {
			return newValidationError(RuleCycle,
				"account %q is a descendant of %q and cannot become its parent", parentID, childID)
		}
	}

	return nil
}

// Reparent moves the account under a new parent, or makes it a root when
// parentID is nil. A nil parent skips cycle validation entirely: a root has
// no cycle to form. Validation and persistence run in one transaction so
// the descendant snapshot the check saw is the one the write lands on.
func (s *HierarchyService) Reparent(ctx context.Context, tenantID, id string, parentID *string) (*model.Account, error) {
	var updated *model.Account

	err := s.store.Transaction(ctx, func(tx repository.AccountStore) error {
		account, err := tx.Find(ctx, tenantID, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return &NotFoundError{ID: id}
			}
			return err
		}

		if parentID != nil {
			scoped := &HierarchyService{store: tx, log: s.log, maxDepth: s.maxDepth}
			if err := scoped.ValidateParent(ctx, tenantID, id, *parentID); err != nil {
				return err
			}
		}

		account.ParentID = parentID
		if err := tx.Update(ctx, tenantID, account); err != nil {
			return err
		}
		updated = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("account reparented",
		zap.String("account_id", id),
		zap.String("tenant_id", tenantID),
		zap.Stringp("parent_id", parentID))
	return updated, nil
}

// AssertDeletable fails with ValidationError when the account still has
// non-deleted children. Children must be reparented or removed first; there
// is no implicit cascade.
func (s *HierarchyService) AssertDeletable(ctx context.Context, tenantID, id string) error {
	if _, err := s.store.Find(ctx, tenantID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{ID: id}
		}
		return err
	}

	children, err := s.store.ChildrenOf(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return newValidationError(RuleHasChildren,
			"account %q has %d child account(s); reparent or delete them first", id, len(children))
	}
	return nil
}
