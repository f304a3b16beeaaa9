package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is() checking. The concrete error types
// below unwrap to one of these.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("resource already exists")
	ErrStorage    = errors.New("storage failure")
)

// ValidationKind classifies why an input was rejected.
type ValidationKind string

const (
	MissingField  ValidationKind = "missing_field"
	InvalidFormat ValidationKind = "invalid_format"
	OutOfRange    ValidationKind = "out_of_range"
)

// ValidationError is returned by the validation package when an input is
// rejected. It never reaches storage.
type ValidationError struct {
	Kind    ValidationKind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: field %s: %s", ErrValidation, e.Field, e.Kind)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ConstraintKind names the storage constraint that was violated.
type ConstraintKind string

const DuplicateEmail ConstraintKind = "duplicate_email"

// ConstraintError is returned by the store when a write would break a
// uniqueness invariant enforced by storage.
type ConstraintError struct {
	Kind ConstraintKind
}

func (e *ConstraintError) Error() string {
	switch e.Kind {
	case DuplicateEmail:
		return "email already exists"
	default:
		return fmt.Sprintf("constraint violated: %s", e.Kind)
	}
}

func (e *ConstraintError) Unwrap() error {
	return ErrConflict
}

// StorageError wraps any other failure reported by the storage engine.
// Op is the store operation that failed, e.g. "FindAll".
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the underlying driver error.
func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}
