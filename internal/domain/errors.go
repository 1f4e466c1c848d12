package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is() checking.
//
// ErrNotFound, ErrConflict, and ErrStorage classify repository failures.
// ErrUnavailable and ErrThrottled classify notifier failures; they are
// advisory and must never change the outcome of a repository operation.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrConflict    = errors.New("conflict")
	ErrStorage     = errors.New("storage error")
	ErrUnavailable = errors.New("unavailable")
	ErrThrottled   = errors.New("throttled")
)

// NotFoundError wraps ErrNotFound with the identifier that was looked up.
// Use errors.Is(err, ErrNotFound) for checks, or errors.As to recover the ID.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %s: %s", e.ID, ErrNotFound.Error())
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// StorageError wraps ErrStorage with the repository operation that failed and
// the underlying driver error. The driver error is logged internally but never
// leaks to untrusted callers; the transport layer maps ErrStorage to an opaque
// 500 response.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrStorage.Error(), e.Err)
}

func (e *StorageError) Unwrap() error {
	return ErrStorage
}

// ValidationError provides programmatic access to field-level validation
// failures. Use errors.Is(err, ErrValidation) for simple checks, or
// errors.As(err, &verr) to access verr.Fields for per-field error details.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
