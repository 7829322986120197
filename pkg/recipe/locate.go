package recipe

import (
	"context"
	"fmt"
	"strings"

	"github.com/fulmenhq/recipeneat/pkg/datastore"
)

// Assignment is one located variable assignment. Start is the zero-based
// index of the opening line and Span the number of physical lines it covers.
type Assignment struct {
	Name     string
	Operator string
	Value    string
	File     string
	Start    int
	Span     int
	// Func is set for function definitions; Name then ends in "()".
	Func bool
}

// End returns the index just past the last line of the assignment.
func (a Assignment) End() int { return a.Start + a.Span }

// Tokens returns the whitespace-separated items of the value.
func (a Assignment) Tokens() []string { return strings.Fields(a.Value) }

// ScanAssignments finds the last assignment of each name in lines. Names that
// are never assigned are absent from the result.
func ScanAssignments(lines []string, names []string) map[string]Assignment {
	found := make(map[string]Assignment)
	var cur *Assignment
	var raw []string
	flush := func() {
		if cur != nil {
			cur.Value = assignmentValue(raw, cur.Operator)
			found[cur.Name] = *cur
		}
		cur, raw = nil, nil
	}
	open := false
	for i, line := range lines {
		c := Classify(line, names, open)
		switch c.Kind {
		case AssignmentStart:
			flush()
			cur = &Assignment{Name: c.Name, Operator: c.Operator, Start: i, Span: 1}
			raw = []string{line}
		case Continuation:
			if cur != nil {
				cur.Span++
				raw = append(raw, line)
			}
		default:
			flush()
		}
		open = c.Continued
		if !open {
			flush()
		}
	}
	flush()
	return found
}

// assignmentValue extracts the unquoted value from the physical lines of an
// assignment.
func assignmentValue(raw []string, op string) string {
	if len(raw) == 0 {
		return ""
	}
	first := raw[0]
	if idx := strings.Index(first, op); idx >= 0 {
		first = first[idx+len(op):]
	}
	parts := make([]string, 0, len(raw))
	for i, l := range append([]string{first}, raw[1:]...) {
		l = strings.TrimRight(l, " \t\r\n")
		l = strings.TrimSuffix(l, `\`)
		if i == 0 {
			l = strings.TrimLeft(l, " \t")
		}
		parts = append(parts, l)
	}
	v := strings.TrimSpace(strings.Join(parts, ""))
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		v = v[1 : len(v)-1]
	}
	return v
}

// VarFiles finds the file in which each variable is last set, according to
// the variable history of the parsed recipe. Flag events are ignored. A name
// that is never set maps to "".
func VarFiles(ctx context.Context, history datastore.HistoryService, recipeFile string, names []string) (map[string]string, error) {
	files := make(map[string]string, len(names))
	for _, name := range names {
		events, err := history.VariableHistory(ctx, recipeFile, name)
		if err != nil {
			return nil, fmt.Errorf("history of %s: %w", name, err)
		}
		files[name] = ""
		for _, ev := range events {
			if ev.File != "" && ev.Flag == "" {
				files[name] = ev.File
			}
		}
	}
	return files, nil
}
