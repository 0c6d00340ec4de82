package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrValidation   = errors.New("validation failed")

	// Ingestion failures. All are surfaced as structured results, never
	// raised across the pipeline boundary.
	ErrCapabilityMissing = errors.New("required external tool is not installed")
	ErrEncoding          = errors.New("unable to decode text with any supported encoding")
	ErrExtraction        = errors.New("extraction produced no usable text")

	// Generation failures. Both are retried up to the policy budget; the
	// terminal error keeps the sentinel so callers can tell connectivity
	// problems apart from bad backend output.
	ErrBackendUnreachable = errors.New("generation backend unreachable")
	ErrMalformedResponse  = errors.New("malformed generation backend response")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Tag attaches a sentinel to an error so callers can classify it with
// errors.Is while the original cause stays in the chain.
func Tag(sentinel error, message string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%s: %w: %w", message, sentinel, cause)
	}
	return fmt.Errorf("%s: %w", message, sentinel)
}
