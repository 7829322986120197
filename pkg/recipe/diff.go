package recipe

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultDiffContext is the number of context lines around each hunk.
const DefaultDiffContext = 3

const noNewlineMarker = `\ No newline at end of file`

// UnifiedDiff renders the change from one set of lines to another with
// a/<relPath> and b/<relPath> headers. It returns "" when nothing changed.
func UnifiedDiff(from, to []string, relPath string, context int) (string, error) {
	if equalLines(from, to) {
		return "", nil
	}
	if context <= 0 {
		context = DefaultDiffContext
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        markMissingNewline(from),
		B:        markMissingNewline(to),
		FromFile: "a/" + relPath,
		ToFile:   "b/" + relPath,
		Context:  context,
	})
}

// markMissingNewline terminates a last line that has no newline and adds the
// marker patch tools expect after it.
func markMissingNewline(lines []string) []string {
	n := len(lines)
	if n == 0 || strings.HasSuffix(lines[n-1], "\n") {
		return lines
	}
	out := append([]string(nil), lines...)
	out[n-1] += "\n" + noNewlineMarker + "\n"
	return out
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
