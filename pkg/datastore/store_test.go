package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapStoreExpand(t *testing.T) {
	s := NewMapStore(map[string]string{
		"PN":   "foo",
		"PV":   "1.0",
		"P":    "${PN}-${PV}",
		"SELF": "${SELF}x",
	})

	tests := []struct {
		in   string
		want string
	}{
		{"${P}", "foo-1.0"},
		{"${PN}/files", "foo/files"},
		{"${UNKNOWN}/x", "${UNKNOWN}/x"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Expand(tt.in))
		})
	}

	// self references terminate
	v, ok := s.GetVar("SELF", true)
	require.True(t, ok)
	assert.Contains(t, v, "${SELF}")
}

func TestMapStoreGetSetCopy(t *testing.T) {
	s := NewMapStore(nil)
	_, ok := s.GetVar("A", false)
	assert.False(t, ok)

	s.SetVar("B", "2")
	s.SetVar("A", "1")
	assert.Equal(t, []string{"A", "B"}, s.Keys())

	c := s.CreateCopy()
	c.SetVar("A", "changed")
	assert.Equal(t, "1", GetString(s, "A"))
	assert.Equal(t, "changed", GetString(c, "A"))
	assert.Equal(t, "", GetString(s, "MISSING"))
}

func TestStaticHistory(t *testing.T) {
	h := StaticHistory{
		"SRC_URI": {{File: "/r/foo.bb", Line: 3, Op: "set"}},
	}
	events, err := h.VariableHistory(context.Background(), "/r/foo.bb", "SRC_URI")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 3, events[0].Line)

	events, err = h.VariableHistory(context.Background(), "/r/foo.bb", "LICENSE")
	require.NoError(t, err)
	assert.Empty(t, events)
}
