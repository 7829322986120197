/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package exitcode

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/fulmenhq/recipeneat/pkg/datastore"
	"github.com/fulmenhq/recipeneat/pkg/recipe"
)

func allCodes() []int {
	return []int{
		Success,
		GeneralError,
		ConfigError,
		ValidationError,
		FileSystemError,
		NotFound,
		PermissionError,
		UnsupportedFormat,
		ChangesPending,
	}
}

func TestExitCodeConstants(t *testing.T) {
	if Success != 0 {
		t.Errorf("Success = %v, expected 0", Success)
	}
	if GeneralError != 1 {
		t.Errorf("GeneralError = %v, expected 1", GeneralError)
	}
	if ValidationError != 3 {
		t.Errorf("ValidationError = %v, expected 3", ValidationError)
	}
	if ChangesPending != 8 {
		t.Errorf("ChangesPending = %v, expected 8", ChangesPending)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{Success, "Success"},
		{GeneralError, "General error"},
		{ConfigError, "Configuration error"},
		{ValidationError, "Validation error"},
		{FileSystemError, "File system error"},
		{NotFound, "Not found"},
		{PermissionError, "Permission error"},
		{UnsupportedFormat, "Unsupported format"},
		{ChangesPending, "Changes pending"},
		{999, "Unknown error"},
	}

	for _, test := range tests {
		result := String(test.code)
		if result != test.expected {
			t.Errorf("String(%d) = %v, expected %v", test.code, result, test.expected)
		}
	}
}

func TestExitCodeUniqueness(t *testing.T) {
	seen := make(map[int]bool)
	for _, code := range allCodes() {
		if seen[code] {
			t.Errorf("Exit code %d is not unique", code)
		}
		seen[code] = true
		if String(code) == "Unknown error" {
			t.Errorf("String(%d) returned 'Unknown error' for defined constant", code)
		}
	}
}

func TestForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, Success},
		{"invalid input", fmt.Errorf("%w: bad line", recipe.ErrInvalidInput), ValidationError},
		{"invalid snapshot", fmt.Errorf("%w: schema", datastore.ErrInvalidSnapshot), ValidationError},
		{"unsupported fetch", fmt.Errorf("%w: https", datastore.ErrUnsupported), UnsupportedFormat},
		{"recipe not found", fmt.Errorf("%w: FILE", recipe.ErrNotFound), NotFound},
		{"missing file", fmt.Errorf("%w: read x: %w", recipe.ErrIO, fs.ErrNotExist), NotFound},
		{"permission", fmt.Errorf("%w: write x: %w", recipe.ErrIO, fs.ErrPermission), PermissionError},
		{"io", fmt.Errorf("%w: rename", recipe.ErrIO), FileSystemError},
		{"other", errors.New("boom"), GeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForError(tt.err); got != tt.want {
				t.Errorf("ForError(%v) = %d, expected %d", tt.err, got, tt.want)
			}
		})
	}
}
