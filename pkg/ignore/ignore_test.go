package ignore

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestNewMatcher(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "# build output\n*.log\ntmp/\n!keep.log\n")
	writeFile(t, filepath.Join(root, IgnoreFile), "# local\n*.orig\n")

	matcher, err := NewMatcher(root)
	if err != nil {
		t.Fatalf("Failed to create matcher: %v", err)
	}

	tests := []struct {
		path     string
		isDir    bool
		expected bool
	}{
		{"foo_1.0.bb", false, false},
		{"files/fix.patch", false, false},
		{"build.log", false, true},
		{"keep.log", false, false},
		{"tmp", true, true},
		{"files/defconfig.orig", false, true},
		{".git", true, true},
		{"files/.defconfig.swp", false, true},
		{filepath.Join(root, "other.log"), false, true},
		{filepath.Join(filepath.Dir(root), "outside.log"), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := matcher.Match(tt.path, tt.isDir); got != tt.expected {
				t.Errorf("Match(%q, %v) = %v, expected %v", tt.path, tt.isDir, got, tt.expected)
			}
		})
	}
}

func TestMatcherWithNoIgnoreFiles(t *testing.T) {
	matcher, err := NewMatcher(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create matcher: %v", err)
	}
	if matcher.Match("foo.bb", false) {
		t.Error("foo.bb should not be ignored without ignore files")
	}
	if !matcher.Match(".git", true) {
		t.Error(".git should always be ignored")
	}
}

func TestNilMatcher(t *testing.T) {
	var m *Matcher
	if m.Match("anything", false) {
		t.Error("nil matcher should ignore nothing")
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", []string{}},
		{".", []string{}},
		{"a/b/c", []string{"a", "b", "c"}},
		{"/a//b/./c", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		if got := splitPath(tt.input); !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("splitPath(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}
