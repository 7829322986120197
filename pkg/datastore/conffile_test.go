package datastore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestParseConfigFileOperators(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "conf", "layer.conf")
	writeFile(t, conf, `# layer configuration
BBPATH .= ":${LAYERDIR}"
LAYERDIR = "/layers/meta-foo"
BBFILES += "${LAYERDIR}/recipes-*/*/*.bb \
            ${LAYERDIR}/recipes-*/*/*.bbappend"
BBFILE_COLLECTIONS += "foo"
DEFAULT ?= "first"
DEFAULT ?= "second"
WEAK ??= "weak"
IMMEDIATE := "${LAYERDIR}/x"
PRE = "b"
PRE =+ "a"
DOT = "b"
DOT =. "a"
export EXPORTED = "yes"
not an assignment
`)

	s := NewMapStore(map[string]string{"BBPATH": "/base"})
	require.NoError(t, ParseConfigFile(conf, s))

	get := func(name string) string {
		v, _ := s.GetVar(name, false)
		return v
	}
	assert.Equal(t, `/base:${LAYERDIR}`, get("BBPATH"))
	assert.Equal(t, "foo", get("BBFILE_COLLECTIONS"))
	assert.Contains(t, get("BBFILES"), "${LAYERDIR}/recipes-*/*/*.bb")
	assert.Contains(t, get("BBFILES"), "${LAYERDIR}/recipes-*/*/*.bbappend")
	assert.Equal(t, "first", get("DEFAULT"))
	assert.Equal(t, "weak", get("WEAK"))
	assert.Equal(t, "/layers/meta-foo/x", get("IMMEDIATE"))
	assert.Equal(t, "a b", get("PRE"))
	assert.Equal(t, "ab", get("DOT"))
	assert.Equal(t, "yes", get("EXPORTED"))
}

func TestParseConfigFileIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "inc", "extra.inc"), `EXTRA = "1"`+"\n")
	main := filepath.Join(dir, "main.conf")
	writeFile(t, main, `include inc/extra.inc
include inc/missing.inc
AFTER = "${EXTRA}"
`)

	s := NewMapStore(nil)
	require.NoError(t, ParseConfigFile(main, s))
	assert.Equal(t, "1", GetString(s, "AFTER"))

	bad := filepath.Join(dir, "bad.conf")
	writeFile(t, bad, "require inc/missing.inc\n")
	err := ParseConfigFile(bad, NewMapStore(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseConfigFileMissing(t *testing.T) {
	err := ParseConfigFile(filepath.Join(t.TempDir(), "nope.conf"), NewMapStore(nil))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
