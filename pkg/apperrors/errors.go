package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrValidation  = errors.New("validation failed")
	ErrUnavailable = errors.New("storage unavailable")
)

// ValidationError reports a missing or out-of-range field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ReferenceError reports a foreign-key field that does not resolve to an existing row.
type ReferenceError struct {
	Field string
	Kind  string
	ID    int64
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: %s %d not found", e.Field, e.Kind, e.ID)
}

func (e *ReferenceError) Is(target error) bool { return target == ErrNotFound }

// DependentsError reports a delete blocked by rows on a no-action edge.
type DependentsError struct {
	Kind          string
	ID            int64
	DependentKind string
	Count         int64
}

func (e *DependentsError) Error() string {
	return fmt.Sprintf("%s %d is still referenced by %d %s row(s)", e.Kind, e.ID, e.Count, e.DependentKind)
}

func (e *DependentsError) Is(target error) bool { return target == ErrConflict }

// VersionConflictError reports a stale version token on update.
type VersionConflictError struct {
	Kind     string
	ID       int64
	Expected int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("%s %d was modified concurrently (expected version %d)", e.Kind, e.ID, e.Expected)
}

func (e *VersionConflictError) Is(target error) bool { return target == ErrConflict }
