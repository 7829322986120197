// Package datastore holds the build-data services recipe editing depends on:
// a variable store with expansion, variable history, and local file fetching.
// The implementations here back the command line tool; callers embedding the
// editing packages can supply their own.
package datastore

import (
	"regexp"
	"sort"
)

// Store is a key/value build environment with variable expansion.
type Store interface {
	// GetVar returns the value of name, expanded when expand is set.
	GetVar(name string, expand bool) (string, bool)
	SetVar(name, value string)
	// Keys returns all variable names in sorted order.
	Keys() []string
	// Expand replaces ${NAME} references in s.
	Expand(s string) string
	// CreateCopy returns an independent deep copy.
	CreateCopy() Store
}

// maxExpandDepth bounds nested expansion so self-references terminate.
const maxExpandDepth = 32

var varRef = regexp.MustCompile(`\$\{([A-Za-z0-9_\-+./~:]+)\}`)

// MapStore is an in-memory Store.
type MapStore struct {
	vars map[string]string
}

// NewMapStore returns a store seeded with vars.
func NewMapStore(vars map[string]string) *MapStore {
	s := &MapStore{vars: make(map[string]string, len(vars))}
	for k, v := range vars {
		s.vars[k] = v
	}
	return s
}

// GetVar returns the value of name.
func (s *MapStore) GetVar(name string, expand bool) (string, bool) {
	v, ok := s.vars[name]
	if !ok {
		return "", false
	}
	if expand {
		v = s.Expand(v)
	}
	return v, true
}

// SetVar sets name to value.
func (s *MapStore) SetVar(name, value string) {
	s.vars[name] = value
}

// Keys returns all variable names in sorted order.
func (s *MapStore) Keys() []string {
	keys := make([]string, 0, len(s.vars))
	for k := range s.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Expand replaces ${NAME} references with their values. Unknown references
// are left as they are.
func (s *MapStore) Expand(in string) string {
	out := in
	for i := 0; i < maxExpandDepth; i++ {
		next := varRef.ReplaceAllStringFunc(out, func(ref string) string {
			name := ref[2 : len(ref)-1]
			if v, ok := s.vars[name]; ok {
				return v
			}
			return ref
		})
		if next == out {
			break
		}
		out = next
	}
	return out
}

// CreateCopy returns an independent copy of the store.
func (s *MapStore) CreateCopy() Store {
	return NewMapStore(s.vars)
}

// GetString returns the expanded value of name, or "" when it is unset.
func GetString(s Store, name string) string {
	v, _ := s.GetVar(name, true)
	return v
}
