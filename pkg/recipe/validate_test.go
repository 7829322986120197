package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		pn    string
		valid bool
	}{
		{"foo", true},
		{"libfoo-1.2", true},
		{"python3-foo.bar", true},
		{"Foo", false},
		{"foo_bar", false},
		{"foo bar", false},
		{"", false},
		{"append", false},
		{"forcevariable", false},
		{"pn-foo", false},
	}
	for _, tt := range tests {
		t.Run(tt.pn, func(t *testing.T) {
			err := ValidateName(tt.pn)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
