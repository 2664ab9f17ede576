// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrTimeout indicates a knowledge-store operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrContextCanceled indicates context was canceled.
	ErrContextCanceled = errors.New("context canceled")

	// ErrRateLimitExceeded indicates a session exhausted its question budget.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// StoreError represents knowledge-store access failures with context.
type StoreError struct {
	Query string
	Err   error
}

func (e *StoreError) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("store error (query=%s): %v", e.Query, e.Err)
	}
	return fmt.Sprintf("store error: %v", e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new store error. query is a short label for the
// failed operation, not the raw Cypher text.
func NewStoreError(query string, err error) *StoreError {
	return &StoreError{
		Query: query,
		Err:   err,
	}
}

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Is implements error matching for wrapped sentinel errors.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As implements error type assertion for wrapped errors.
func As(err error, target any) bool {
	return errors.As(err, target)
}
