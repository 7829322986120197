package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/recipeneat/pkg/recipe"
)

func TestValidateName(t *testing.T) {
	out, err := execRoot(t, []string{"validate-name", "foo-bar", "libfoo1.2"})
	require.NoError(t, err)
	assert.Equal(t, "foo-bar: ok\nlibfoo1.2: ok\n", out)
}

func TestValidateNameRejects(t *testing.T) {
	out, err := execRoot(t, []string{"validate-name", "Foo", "ok-name", "pn-x"})
	assert.ErrorIs(t, err, recipe.ErrInvalidInput)
	assert.ErrorContains(t, err, `"Foo"`)
	assert.ErrorContains(t, err, `"pn-x"`)
	assert.Equal(t, "ok-name: ok\n", out)
}
