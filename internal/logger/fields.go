package logger

// Standard field names for structured logging.
// Use these constants instead of raw strings so log queries stay stable.
const (
	// Identity
	FieldRunID = "run_id"
	FieldBatch = "batch"

	// Components
	FieldComponent = "component"
	FieldOperation = "operation"

	// Timing
	FieldDurationMS = "duration_ms"
	FieldAttempt    = "attempt"

	// Errors
	FieldError     = "error"
	FieldErrorType = "error_type"
	FieldCategory  = "category"

	// Counts
	FieldCount     = "count"
	FieldInput     = "input"
	FieldOutput    = "output"
	FieldSkipped   = "skipped"
	FieldDuplicate = "duplicates"

	// Status
	FieldStatus = "status"

	// Files and paths
	FieldFile   = "file"
	FieldPath   = "path"
	FieldDigest = "sha256"
	FieldSite   = "origin_site"
	FieldKind   = "kind"
)
