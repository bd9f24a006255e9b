// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// ErrValidation indicates malformed or incomplete data, such as a remote
	// response that does not match its expected schema.
	ErrValidation = errors.New("validation failed")
	// ErrRemoteService indicates a network failure, non-2xx response,
	// timeout, or rate limit from the remote classifier.
	ErrRemoteService = errors.New("remote service error")
	// ErrConfiguration indicates invalid threshold or settings values.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrNotFound indicates a missing record in the store.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEntry indicates a record that already exists.
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// ValidationError carries detail about what failed validation.
type ValidationError struct {
	Detail string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation failed: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("validation failed: %s", e.Detail)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is lets errors.Is match any ValidationError against ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError creates a validation error with detail text.
func NewValidationError(detail string, err error) error {
	return &ValidationError{Detail: detail, Err: err}
}

// RemoteServiceError carries the HTTP status (when known) of a failed
// remote classifier call.
type RemoteServiceError struct {
	Err        error
	Operation  string
	StatusCode int
}

func (e *RemoteServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote %s failed (status %d): %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("remote %s failed: %v", e.Operation, e.Err)
}

func (e *RemoteServiceError) Unwrap() error { return e.Err }

// Is lets errors.Is match any RemoteServiceError against ErrRemoteService.
func (e *RemoteServiceError) Is(target error) bool { return target == ErrRemoteService }

// NewRemoteServiceError creates a remote service error for an operation.
func NewRemoteServiceError(operation string, statusCode int, err error) error {
	return &RemoteServiceError{Operation: operation, StatusCode: statusCode, Err: err}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
