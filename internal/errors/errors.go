package errors

import (
	"errors"
	"fmt"
)

// StelaeError is the structured error type for stelae.
// It carries the context error handling, logging, and operation results need.
type StelaeError struct {
	// Code is the unique error code (e.g., "ERR_201_OBJECT_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Graph, Index, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *StelaeError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StelaeError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so errors.Is works across wrapping.
func (e *StelaeError) Is(target error) bool {
	if t, ok := target.(*StelaeError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *StelaeError) WithDetail(key, value string) *StelaeError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new StelaeError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *StelaeError {
	return &StelaeError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a StelaeError from an existing error.
// The error's message becomes the StelaeError message.
func Wrap(code string, err error) *StelaeError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// NotFound creates a graph not-found error for the given object reference.
func NotFound(what string, id int64) *StelaeError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s %d not found", what, id), nil)
}

// UnsupportedType creates a projection error for a type with no handler.
func UnsupportedType(typeName string) *StelaeError {
	return New(ErrCodeUnsupportedType, fmt.Sprintf("no projection handler for type %s", typeName), nil)
}

// StoreFailure creates a fatal index-store error.
func StoreFailure(message string, cause error) *StelaeError {
	return New(ErrCodeStoreFailure, message, cause)
}

// ResolutionFailure creates a fatal graph-resolution error.
func ResolutionFailure(message string, cause error) *StelaeError {
	return New(ErrCodeResolutionFailure, message, cause)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *StelaeError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IsNotFound reports whether err carries the not-found code anywhere
// in its chain.
func IsNotFound(err error) bool {
	return errors.Is(err, &StelaeError{Code: ErrCodeNotFound})
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var se *StelaeError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the current operation.
func IsFatal(err error) bool {
	var se *StelaeError
	if errors.As(err, &se) {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a StelaeError in the chain.
// Returns empty string otherwise.
func GetCode(err error) string {
	var se *StelaeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
