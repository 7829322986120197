package recipe

import "errors"

// Error kinds surfaced by recipe and overlay operations. Callers match them
// with errors.Is; messages carry the detail.
var (
	// ErrNotFound is returned when the file an edit belongs to cannot be determined.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for caller-supplied content that cannot be parsed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrIO wraps read, write and rename failures.
	ErrIO = errors.New("io failure")
)
