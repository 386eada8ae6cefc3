package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks lookups referencing an unknown review or snapshot key.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks an extraction response that does not match the
	// enrichment schema. Always a per-review failure, never fatal.
	ErrValidation = errors.New("validation failed")
	// ErrSnapshotInconsistent marks a snapshot that reports ready while its
	// dataset is empty or unavailable. Fatal for that snapshot: the provider
	// broke its own contract.
	ErrSnapshotInconsistent = errors.New("snapshot inconsistent")
)

// NewNotFoundError describes a missing resource by kind and key.
func NewNotFoundError(kind, key string) error {
	return fmt.Errorf("%s %q: %w", kind, key, ErrNotFound)
}

// NewValidationError wraps a schema mismatch with field context.
func NewValidationError(field string, err error) error {
	return fmt.Errorf("field %s: %v: %w", field, err, ErrValidation)
}

// IsNotFound reports whether err is a missing-key error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is a schema-validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
