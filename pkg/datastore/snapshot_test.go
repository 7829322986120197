package datastore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSnapshotFormats(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "env.yaml")
	writeFile(t, yamlPath, `recipe: /layers/meta/recipes-foo/foo/foo_1.0.bb
variables:
  PN: foo
  FILESPATH: /layers/meta/recipes-foo/foo/files
history:
  SRC_URI:
    - file: /layers/meta/recipes-foo/foo/foo.inc
      line: 4
      op: set
    - file: /layers/meta/recipes-foo/foo/foo_1.0.bb
      line: 9
      op: append
`)

	jsonPath := filepath.Join(dir, "env.json")
	writeFile(t, jsonPath, `{"variables": {"PN": "foo"}, "history": {"LICENSE": [{"file": "/r/foo.bb"}]}}`)

	tomlPath := filepath.Join(dir, "env.toml")
	writeFile(t, tomlPath, `recipe = "/r/foo.bb"

[variables]
PN = "foo"

[[history.SRC_URI]]
file = "/r/foo.bb"
line = 2
op = "set"
`)

	for _, path := range []string{yamlPath, jsonPath, tomlPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			snap, err := LoadSnapshot(path)
			require.NoError(t, err)
			assert.Equal(t, "foo", GetString(snap.Store(), "PN"))
		})
	}

	snap, err := LoadSnapshot(yamlPath)
	require.NoError(t, err)
	events, err := snap.HistoryService().VariableHistory(context.Background(), snap.Recipe, "SRC_URI")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "/layers/meta/recipes-foo/foo/foo_1.0.bb", events[1].File)
	assert.Equal(t, 9, events[1].Line)
}

func TestParseSnapshotInvalid(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format string
	}{
		{"non-string variable", "variables:\n  PN: [a, b]\n", "yaml"},
		{"unknown key", "extra: true\n", "yaml"},
		{"history without file", "history:\n  PN:\n    - line: 1\n", "yaml"},
		{"broken yaml", "variables: [\n", "yaml"},
		{"broken toml", "variables = [", "toml"},
		{"unknown format", "", "ini"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSnapshot([]byte(tt.data), tt.format)
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
}

func TestParseSnapshotEmpty(t *testing.T) {
	snap, err := ParseSnapshot(nil, "yaml")
	require.NoError(t, err)
	assert.Empty(t, snap.Variables)
}

func TestLoadSnapshotUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.ini")
	writeFile(t, path, "")
	_, err := LoadSnapshot(path)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}
