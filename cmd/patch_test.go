package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/recipeneat/pkg/recipe"
)

const fooRecipe = "SUMMARY = \"foo\"\nLICENSE = \"GPLv2\"\n"

// writeSnapshot saves a snapshot for recipeFile whose SUMMARY history points
// at summaryFile.
func writeSnapshot(t *testing.T, dir, recipeFile, summaryFile string) string {
	t.Helper()
	content := fmt.Sprintf(`recipe: %q
variables:
  PN: foo
history:
  SUMMARY:
    - file: %q
      line: 1
`, recipeFile, summaryFile)
	return writeFile(t, filepath.Join(dir, "snapshot.yaml"), content)
}

func TestPatch_DiffLeavesFileAlone(t *testing.T) {
	wd := sandbox(t)
	recipeFile := writeFile(t, filepath.Join(wd, "foo_1.0.bb"), fooRecipe)

	out, err := execRoot(t, []string{"patch", "--set", "LICENSE=MIT", "--diff", "--relpath", wd, recipeFile})
	require.NoError(t, err)
	assert.Contains(t, out, "--- a/foo_1.0.bb\n+++ b/foo_1.0.bb\n")
	assert.Contains(t, out, "-LICENSE = \"GPLv2\"\n+LICENSE = \"MIT\"\n")
	assert.Equal(t, fooRecipe, readFile(t, recipeFile))
}

func TestPatch_NoOpPrintsDiff(t *testing.T) {
	wd := sandbox(t)
	recipeFile := writeFile(t, filepath.Join(wd, "foo_1.0.bb"), fooRecipe)

	out, err := execRoot(t, []string{"--no-op", "patch", "-s", "LICENSE=MIT", recipeFile})
	require.NoError(t, err)
	assert.Contains(t, out, "+LICENSE = \"MIT\"")
	assert.Equal(t, fooRecipe, readFile(t, recipeFile))
}

func TestPatch_Apply(t *testing.T) {
	wd := sandbox(t)
	recipeFile := writeFile(t, filepath.Join(wd, "foo_1.0.bb"), fooRecipe)

	out, err := execRoot(t, []string{"patch", "--set", "LICENSE=MIT", recipeFile})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, "SUMMARY = \"foo\"\nLICENSE = \"MIT\"\n", readFile(t, recipeFile))
}

func TestPatch_ExitCode(t *testing.T) {
	wd := sandbox(t)
	recipeFile := writeFile(t, filepath.Join(wd, "foo_1.0.bb"), fooRecipe)

	_, err := execRoot(t, []string{"patch", "--set", "LICENSE=MIT", "--diff", "--exit-code", recipeFile})
	assert.ErrorIs(t, err, errChangesPending)

	// no change pending
	_, err = execRoot(t, []string{"patch", "--set", "LICENSE=GPLv2", "--diff", "--exit-code", recipeFile})
	assert.NoError(t, err)
}

func TestPatch_SnapshotEditsIncludedFile(t *testing.T) {
	wd := sandbox(t)
	recipeFile := writeFile(t, filepath.Join(wd, "foo", "foo_1.0.bb"), "require foo.inc\nLICENSE = \"GPLv2\"\n")
	incFile := writeFile(t, filepath.Join(wd, "foo", "foo.inc"), "SUMMARY = \"foo\"\nSECTION = \"libs\"\n")
	snap := writeSnapshot(t, wd, recipeFile, incFile)

	_, err := execRoot(t, []string{"patch", "--snapshot", snap, "--set", "SUMMARY=The foo library"})
	require.NoError(t, err)
	assert.Equal(t, "SUMMARY = \"The foo library\"\nSECTION = \"libs\"\n", readFile(t, incFile))
	assert.Equal(t, "require foo.inc\nLICENSE = \"GPLv2\"\n", readFile(t, recipeFile))
}

func TestPatch_SnapshotFromConfig(t *testing.T) {
	wd := sandbox(t)
	recipeFile := writeFile(t, filepath.Join(wd, "foo", "foo_1.0.bb"), fooRecipe)
	snap := writeSnapshot(t, wd, recipeFile, recipeFile)
	writeFile(t, filepath.Join(wd, ".recipeneat.yaml"), fmt.Sprintf("snapshot: %q\n", snap))

	out, err := execRoot(t, []string{"patch", "--set", "SUMMARY=bar", "--diff"})
	require.NoError(t, err)
	assert.Contains(t, out, "+++ b/foo/foo_1.0.bb")
	assert.Contains(t, out, "+SUMMARY = \"bar\"")
}

func TestPatch_SeveralRecipesKeepOrder(t *testing.T) {
	wd := sandbox(t)
	a := writeFile(t, filepath.Join(wd, "a", "a_1.0.bb"), fooRecipe)
	b := writeFile(t, filepath.Join(wd, "b", "b_1.0.bb"), fooRecipe)
	snap := writeSnapshot(t, filepath.Join(wd, "b"), b, b)

	out, err := execRoot(t, []string{"patch", "--set", "LICENSE=MIT", "--diff", "--jobs", "2", "--relpath", wd, a, "--snapshot", snap})
	require.NoError(t, err)
	ia := strings.Index(out, "+++ b/a/a_1.0.bb")
	ib := strings.Index(out, "+++ b/b/b_1.0.bb")
	require.GreaterOrEqual(t, ia, 0)
	require.GreaterOrEqual(t, ib, 0)
	assert.Less(t, ia, ib)
}

func TestPatch_InvalidInput(t *testing.T) {
	wd := sandbox(t)
	recipeFile := writeFile(t, filepath.Join(wd, "foo_1.0.bb"), fooRecipe)

	tests := []struct {
		name string
		args []string
	}{
		{"malformed set", []string{"patch", "--set", "LICENSE", recipeFile}},
		{"nothing to set", []string{"patch", recipeFile}},
		{"no recipe", []string{"patch", "--set", "LICENSE=MIT"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execRoot(t, tt.args)
			assert.ErrorIs(t, err, recipe.ErrInvalidInput)
		})
	}
	assert.Equal(t, fooRecipe, readFile(t, recipeFile))
}

func TestPatch_MissingRecipe(t *testing.T) {
	wd := sandbox(t)
	_, err := execRoot(t, []string{"patch", "--set", "LICENSE=MIT", filepath.Join(wd, "nope.bb")})
	assert.ErrorIs(t, err, recipe.ErrIO)
}
