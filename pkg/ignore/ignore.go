// Package ignore decides which files of a recipe directory are left out when
// the directory is copied as a whole, using gitignore rules via go-git.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// IgnoreFile is the per-directory file with extra patterns, in gitignore syntax.
const IgnoreFile = ".recipeneatignore"

// Default patterns that are always ignored.
var defaultPatterns = []string{".git", "*.swp", "*~", "__pycache__/", "*.pyc"}

// Matcher provides gitignore-based file filtering below one root directory
type Matcher struct {
	root    string
	matcher gitignore.Matcher
}

// NewMatcher creates a matcher for root with layered patterns:
// 1. built-in defaults
// 2. .gitignore files below root
// 3. root/.recipeneatignore
func NewMatcher(root string) (*Matcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var allPatterns []gitignore.Pattern
	for _, pattern := range defaultPatterns {
		allPatterns = append(allPatterns, gitignore.ParsePattern(pattern, nil))
	}

	// ReadPatterns with nil reads the .gitignore files of the whole tree
	if gitPatterns, err := gitignore.ReadPatterns(osfs.New(abs), nil); err == nil {
		allPatterns = append(allPatterns, gitPatterns...)
	}

	local, err := readIgnoreFile(filepath.Join(abs, IgnoreFile))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for _, pattern := range local {
		allPatterns = append(allPatterns, gitignore.ParsePattern(pattern, nil))
	}

	return &Matcher{
		root:    abs,
		matcher: gitignore.NewMatcher(allPatterns),
	}, nil
}

// readIgnoreFile reads patterns from a gitignore-style file, skipping blank
// lines and comments.
func readIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path) // #nosec G304 -- fixed file name below the matcher root
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, scanner.Err()
}

// Match reports whether path (absolute, or relative to the root) is ignored.
// Paths outside the root are never ignored.
func (m *Matcher) Match(path string, isDir bool) bool {
	if m == nil {
		return false
	}
	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(m.root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return false
		}
		path = rel
	}
	parts := splitPath(filepath.ToSlash(path))
	if len(parts) == 0 {
		return false
	}
	return m.matcher.Match(parts, isDir)
}

// splitPath converts a slash-separated path into components for go-git matching
func splitPath(path string) []string {
	if path == "" || path == "." {
		return []string{}
	}
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}
