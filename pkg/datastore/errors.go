package datastore

import "errors"

var (
	// ErrNotFound is returned when a referenced file cannot be located.
	ErrNotFound = errors.New("not found")
	// ErrInvalidSnapshot is returned for snapshot files that fail to decode or validate.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	// ErrUnsupported is returned for fetch operations this fetcher cannot perform.
	ErrUnsupported = errors.New("unsupported")
)
