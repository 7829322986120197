package overlay

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fulmenhq/recipeneat/pkg/recipe"
)

// PendingLine is an edit waiting to be merged into an append file. Body holds
// the lines of a function; Name then ends in "()" and Op is empty.
type PendingLine struct {
	Name  string
	Op    string
	Value string
	Body  []string
}

// IsFunc reports whether the line defines a function.
func (p PendingLine) IsFunc() bool { return strings.HasSuffix(p.Name, "()") }

// render writes the line as it appears when appended to a file.
func (p PendingLine) render(eol string) []string {
	if p.IsFunc() {
		out := []string{p.Name + " {" + eol}
		for _, l := range p.Body {
			out = append(out, "    "+l+eol)
		}
		return append(out, "}"+eol)
	}
	return []string{p.Name + " " + p.Op + ` "` + p.Value + `"` + eol, eol}
}

// ParseExtraLines splits free-form lines such as `FOO += "bar"` into name,
// operator and value. A value wrapped in matching quotes is unquoted. Any line
// that does not split into exactly those three fields makes the whole call
// fail with ErrInvalidInput.
func ParseExtraLines(raw []string) ([]PendingLine, error) {
	lines := make([]PendingLine, 0, len(raw))
	for i, line := range raw {
		line = strings.TrimRight(line, "\r\n")
		fields := splitFields(line, 3)
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: extra line %d %q is not of the form NAME OP VALUE", recipe.ErrInvalidInput, i+1, line)
		}
		value := fields[2]
		if n := len(value); n >= 2 && (value[0] == '"' || value[0] == '\'') && value[n-1] == value[0] {
			value = value[1 : n-1]
		}
		lines = append(lines, PendingLine{Name: fields[0], Op: fields[1], Value: value})
	}
	return lines, nil
}

// splitFields splits s on runs of blanks into at most n fields; the last
// field keeps its inner spacing.
func splitFields(s string, n int) []string {
	var out []string
	s = strings.TrimLeft(s, " \t")
	for s != "" {
		if len(out) == n-1 {
			return append(out, strings.TrimRight(s, " \t"))
		}
		end := strings.IndexAny(s, " \t")
		if end < 0 {
			return append(out, s)
		}
		out = append(out, s[:end])
		s = strings.TrimLeft(s[end:], " \t")
	}
	return out
}

// pendingList is the ordered work list of lines not yet merged.
type pendingList []PendingLine

// pop removes and returns the first line for name.
func (l *pendingList) pop(name string) (PendingLine, bool) {
	for i, p := range *l {
		if p.Name == name {
			*l = slices.Delete(*l, i, i+1)
			return p, true
		}
	}
	return PendingLine{}, false
}

// appendValue adds the items of value missing from the pending line for
// name, or queues a new line.
func (l *pendingList) appendValue(name, op, value string) {
	for i, p := range *l {
		if p.Name != name {
			continue
		}
		items := strings.Fields(p.Value)
		merged := strings.TrimRight(p.Value, " ")
		for _, item := range strings.Fields(value) {
			if !slices.Contains(items, item) {
				items = append(items, item)
				merged += " " + item
			}
		}
		(*l)[i].Value = merged
		return
	}
	*l = append(*l, PendingLine{Name: name, Op: op, Value: value})
}
