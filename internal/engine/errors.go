package engine

import "github.com/cockroachdb/errors"

// Sentinel errors shared by the pipeline packages. Callers match them with errors.Is.
var (
	// ErrUnsupportedPayload means the payload kind could not be determined or is unknown.
	ErrUnsupportedPayload = errors.New("unsupported payload kind")
	// ErrCorruptPayload means a payload could not be decoded at all.
	ErrCorruptPayload = errors.New("corrupt payload")
	// ErrInvalidSelection means a batch selection was malformed (bad date, missing file).
	ErrInvalidSelection = errors.New("invalid batch selection")
	// ErrNoDatabase means an import was requested without a DATABASE_URL.
	ErrNoDatabase = errors.New("no database configured")
	// ErrInvalidTables means the static pattern tables failed validation.
	ErrInvalidTables = errors.New("invalid pattern tables")
)
