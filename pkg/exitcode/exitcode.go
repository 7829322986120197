// Package exitcode provides standardized exit codes for recipeneat
package exitcode

import (
	"errors"
	"io/fs"

	"github.com/fulmenhq/recipeneat/pkg/datastore"
	"github.com/fulmenhq/recipeneat/pkg/recipe"
)

// Exit codes for recipeneat CLI
const (
	Success           = 0
	GeneralError      = 1
	ConfigError       = 2
	ValidationError   = 3
	FileSystemError   = 4
	NotFound          = 5
	PermissionError   = 6
	UnsupportedFormat = 7
	ChangesPending    = 8
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case ValidationError:
		return "Validation error"
	case FileSystemError:
		return "File system error"
	case NotFound:
		return "Not found"
	case PermissionError:
		return "Permission error"
	case UnsupportedFormat:
		return "Unsupported format"
	case ChangesPending:
		return "Changes pending"
	default:
		return "Unknown error"
	}
}

// ForError maps an error returned by the recipe, overlay or datastore
// packages to an exit code. Nil maps to Success.
func ForError(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, recipe.ErrInvalidInput), errors.Is(err, datastore.ErrInvalidSnapshot):
		return ValidationError
	case errors.Is(err, datastore.ErrUnsupported):
		return UnsupportedFormat
	case errors.Is(err, fs.ErrPermission):
		return PermissionError
	case errors.Is(err, recipe.ErrNotFound), errors.Is(err, datastore.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return NotFound
	case errors.Is(err, recipe.ErrIO):
		return FileSystemError
	default:
		return GeneralError
	}
}
