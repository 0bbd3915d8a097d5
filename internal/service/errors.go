package service

import (
	"errors"
	"fmt"
)

// Validation rule identifiers, reported with ValidationError so callers and
// bulk results can tell which rule was violated.
const (
	RuleParentNotFound = "parent_not_found"
	RuleSelfParent     = "self_parent"
	RuleCycle          = "cycle"
	RuleHasChildren    = "has_children"
	RuleMissingField   = "missing_field"
)

// ErrDepthExceeded is returned when a hierarchy traversal exceeds the
// configured depth bound. It signals malformed data, not caller error.
var ErrDepthExceeded = errors.New("account hierarchy exceeds maximum depth")

// ValidationError reports a deterministic, synchronous rule violation.
// These are never transient and never retried.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(rule, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports a uniqueness violation, e.g. a duplicate account
// name within a tenant.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NotFoundError reports an absent account. A tenant mismatch is
// indistinguishable from absence on purpose: cross-tenant callers learn
// nothing about other tenants' data.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("account %q not found", e.ID)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
