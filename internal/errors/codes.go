// Package errors provides structured error handling for searchsync.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Record store errors
//   - 3XX: Index provider errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStore indicates record store errors.
	CategoryStore Category = "STORE"
	// CategoryIndex indicates index provider I/O errors.
	CategoryIndex Category = "INDEX"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid  = "ERR_101_CONFIG_INVALID"
	ErrCodeConfigNotFound = "ERR_102_CONFIG_NOT_FOUND"

	// Record store errors (200-299)
	ErrCodeStoreUnavailable = "ERR_201_STORE_UNAVAILABLE"
	ErrCodeInvalidRecord    = "ERR_202_INVALID_RECORD"

	// Index provider errors (300-399)
	ErrCodeIndexUnavailable = "ERR_301_INDEX_UNAVAILABLE"
	ErrCodeIndexLocked      = "ERR_302_INDEX_LOCKED"

	// Validation errors (400-499)
	ErrCodeNotRegistered   = "ERR_401_ENTITY_NOT_REGISTERED"
	ErrCodeInvalidField    = "ERR_402_INVALID_FIELD"
	ErrCodeFieldResolution = "ERR_403_FIELD_RESOLUTION"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStore
	case '3':
		return CategoryIndex
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeConfigInvalid, ErrCodeConfigNotFound:
		// Configuration errors are fatal at startup, never recovered.
		return SeverityFatal
	case ErrCodeFieldResolution:
		// The source commit already succeeded; the index is stale for one
		// record until reindexed, but the process continues.
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
// Only index provider I/O failures are retryable; the synchronizer never
// retries internally, retry policy belongs to the caller.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeIndexUnavailable, ErrCodeIndexLocked:
		return true
	default:
		return false
	}
}
