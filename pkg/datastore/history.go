package datastore

import "context"

// HistoryEvent is one recorded operation on a variable while a recipe was
// parsed. Flag is set for operations on a variable flag rather than its value.
type HistoryEvent struct {
	File string `json:"file" yaml:"file" toml:"file"`
	Line int    `json:"line,omitempty" yaml:"line,omitempty" toml:"line,omitempty"`
	Op   string `json:"op,omitempty" yaml:"op,omitempty" toml:"op,omitempty"`
	Flag string `json:"flag,omitempty" yaml:"flag,omitempty" toml:"flag,omitempty"`
}

// HistoryService reports the ordered history of a variable in a parsed recipe.
type HistoryService interface {
	VariableHistory(ctx context.Context, recipeFile, name string) ([]HistoryEvent, error)
}

// StaticHistory is a HistoryService over a fixed set of events for one recipe.
type StaticHistory map[string][]HistoryEvent

// VariableHistory returns the recorded events for name.
func (h StaticHistory) VariableHistory(_ context.Context, _ string, name string) ([]HistoryEvent, error) {
	return h[name], nil
}
