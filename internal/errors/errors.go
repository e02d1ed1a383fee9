package errors

import (
	"fmt"
)

// Error is the structured error type for searchsync.
// It provides rich context for error handling, logging, and user presentation.
type Error struct {
	// Code is the unique error code (e.g., "ERR_402_INVALID_FIELD").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Store, Index, etc.).
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
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with Error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an Error from an existing error.
// The error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Configuration creates a configuration error. Fatal at startup.
func Configuration(message string, cause error) *Error {
	return New(ErrCodeConfigInvalid, message, cause)
}

// NotRegistered indicates a query or sync against an unknown entity.
func NotRegistered(entity string) *Error {
	return New(ErrCodeNotRegistered, fmt.Sprintf("entity %q is not registered", entity), nil).
		WithDetail("entity", entity)
}

// InvalidField indicates a query named a field not declared indexed.
func InvalidField(entity, field string) *Error {
	return New(ErrCodeInvalidField,
		fmt.Sprintf("field %q is not indexed for entity %q", field, entity), nil).
		WithDetail("entity", entity).
		WithDetail("field", field)
}

// FieldResolution indicates an indexed field was missing from a record at
// index time. The committed record change is not rolled back; the index is
// left stale for that record until it is reindexed.
func FieldResolution(entity, field string) *Error {
	return New(ErrCodeFieldResolution,
		fmt.Sprintf("record of entity %q has no field %q", entity, field), nil).
		WithDetail("entity", entity).
		WithDetail("field", field)
}

// IndexUnavailable indicates an I/O failure talking to the index provider.
// Retryable.
func IndexUnavailable(message string, cause error) *Error {
	return New(ErrCodeIndexUnavailable, message, cause)
}

// Internal creates an internal error.
func Internal(message string, cause error) *Error {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is an Error with the Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetCode extracts the error code from an Error.
// Returns empty string if not an Error.
func GetCode(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// GetCategory extracts the category from an Error.
// Returns empty string if not an Error.
func GetCategory(err error) Category {
	if e, ok := err.(*Error); ok {
		return e.Category
	}
	return ""
}
