package errors

import (
	"errors"
	"fmt"
)

// Request-level errors

var (
	// ErrInvalidInput indicates a request field failed validation or encoding
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrRateLimited indicates the caller exceeded the request budget
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Invariant violations. These mean a bug or a stale artifact, never bad user input.

var (
	// ErrSchemaMismatch indicates an encoded row does not match a model's feature schema
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrAttributionInconsistency indicates baseline + contributions drifted from the model output
	ErrAttributionInconsistency = errors.New("attribution inconsistency")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrUnavailable indicates a dependency is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Startup errors

var (
	// ErrArtifactLoad indicates a required artifact was missing or malformed
	ErrArtifactLoad = errors.New("artifact load failure")
)

// Kind is the stable error identifier reported to API callers
type Kind string

const (
	KindInvalidInput             Kind = "invalid_input"
	KindNotFound                 Kind = "not_found"
	KindRateLimited              Kind = "rate_limited"
	KindSchemaMismatch           Kind = "schema_mismatch"
	KindAttributionInconsistency Kind = "attribution_inconsistency"
	KindArtifactLoadFailure      Kind = "artifact_load_failure"
	KindUnavailable              Kind = "unavailable"
	KindInternal                 Kind = "internal"
)

// String returns string representation
func (k Kind) String() string {
	return string(k)
}

// Internal reports whether the kind is an invariant violation rather than a caller mistake
func (k Kind) Internal() bool {
	switch k {
	case KindInvalidInput, KindNotFound, KindRateLimited:
		return false
	}
	return true
}

// KindOf maps an error chain to its stable kind
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrSchemaMismatch):
		return KindSchemaMismatch
	case errors.Is(err, ErrAttributionInconsistency):
		return KindAttributionInconsistency
	case errors.Is(err, ErrArtifactLoad):
		return KindArtifactLoadFailure
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	}
	return KindInternal
}

// ValidationError represents a rejected request field. It unwraps to ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid input: field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid input: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// FieldOf returns the offending field of a validation error, if any
func FieldOf(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	return ""
}

// MultiError wraps multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors (%d): %v", len(m.Errors), m.Errors[0])
}

// Unwrap exposes every collected error to errors.Is / errors.As
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add adds an error to the list
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// ToError returns the MultiError as an error, or nil if no errors
func (m *MultiError) ToError() error {
	if !m.HasErrors() {
		return nil
	}
	return m
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
