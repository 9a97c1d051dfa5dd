// Package errors provides structured error handling for stelae.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Graph store errors
//   - 3XX: Index store errors
//   - 4XX: Projection errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryGraph indicates graph-store and resolution errors.
	CategoryGraph Category = "GRAPH"
	// CategoryIndex indicates index-store errors.
	CategoryIndex Category = "INDEX"
	// CategoryProjection indicates per-document projection errors.
	CategoryProjection Category = "PROJECTION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates an unrecoverable error, the operation must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but the run can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Graph store errors (200-299)
	ErrCodeNotFound          = "ERR_201_OBJECT_NOT_FOUND"
	ErrCodeResolutionFailure = "ERR_202_RESOLUTION_FAILURE"
	ErrCodeGraphCorrupt      = "ERR_203_GRAPH_STORE_CORRUPT"

	// Index store errors (300-399)
	ErrCodeStoreFailure = "ERR_301_INDEX_STORE_FAILURE"
	ErrCodeCorruptIndex = "ERR_302_CORRUPT_INDEX"
	ErrCodeRebuildBusy  = "ERR_303_REBUILD_IN_PROGRESS"

	// Projection errors (400-499)
	ErrCodeUnsupportedType = "ERR_401_UNSUPPORTED_TYPE"
	ErrCodeInvalidInput    = "ERR_402_INVALID_INPUT"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode derives the category from an error code prefix.
func categoryFromCode(code string) Category {
	if len(code) < 5 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryGraph
	case '3':
		return CategoryIndex
	case '4':
		return CategoryProjection
	default:
		return CategoryInternal
	}
}

// severityFromCode derives the severity from an error code.
// Resolution and index-store failures abort the current operation;
// per-object codes only fail the document they belong to.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeResolutionFailure, ErrCodeStoreFailure, ErrCodeGraphCorrupt, ErrCodeCorruptIndex:
		return SeverityFatal
	case ErrCodeNotFound, ErrCodeUnsupportedType:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether the operation behind a code can be retried.
// Index-store failures heal on the next rebuild; a busy rebuild guard can be
// re-triggered once the in-flight pass completes.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeStoreFailure, ErrCodeRebuildBusy:
		return true
	}
	return false
}
