// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Workflow errors.
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyResolved = errors.New("already resolved")

	// Integration errors.
	ErrExternalService = errors.New("external service unavailable")

	// Configuration errors.
	ErrConfig        = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing configuration")
)

// Error kinds reported to API clients.
const (
	KindValidation      = "validation"
	KindNotFound        = "not_found"
	KindAlreadyResolved = "already_resolved"
	KindExternalService = "external_service"
	KindConfig          = "config"
	KindInternal        = "internal"
)

// ErrorKind maps an error onto the taxonomy exposed to admins.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyResolved):
		return KindAlreadyResolved
	case errors.Is(err, ErrExternalService):
		return KindExternalService
	case errors.Is(err, ErrConfig), errors.Is(err, ErrMissingConfig):
		return KindConfig
	default:
		return KindInternal
	}
}

// Validationf wraps ErrValidation with a formatted detail.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf wraps ErrNotFound with a formatted detail.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// ExternalServiceError marks err as coming from a mailbox, board or LLM API.
func ExternalServiceError(service string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrExternalService, service, err)
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrExternalService) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
