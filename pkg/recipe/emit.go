package recipe

import (
	"sort"
	"strings"

	"github.com/fulmenhq/recipeneat/pkg/format/finalizer"
)

// Options controls how new assignments are laid out.
type Options struct {
	// WrapWidth is the width wrapped assignments are fitted to; 0 means DefaultWrapWidth.
	WrapWidth int
	// EOL is the line terminator for written lines; "" means the file's own.
	EOL string
}

func (o Options) eol(lines []string) string {
	if o.EOL != "" {
		return o.EOL
	}
	return finalizer.DetectLineEnding(strings.Join(lines, ""))
}

// FormatAssignment renders NAME = "value" according to the formatting policy
// of name. Every returned line ends with eol.
func FormatAssignment(name, value string, width int, eol string) []string {
	if eol == "" {
		eol = "\n"
	}
	raw := name + ` = "` + value + `"`
	switch FormatFor(name) {
	case FormatNoWrap:
		return []string{raw + eol}
	case FormatList:
		items := strings.Fields(value)
		if len(items) <= 1 {
			return []string{raw + eol}
		}
		indent := strings.Repeat(" ", len(name)+4)
		out := make([]string, 0, len(items)+1)
		out = append(out, name+` = "`+items[0]+` \`+eol)
		for _, item := range items[1:] {
			out = append(out, indent+item+` \`+eol)
		}
		return append(out, indent+`"`+eol)
	default:
		wrapped := wrapText(raw, width)
		out := make([]string, len(wrapped))
		for i, l := range wrapped {
			if i < len(wrapped)-1 {
				out[i] = l + ` \` + eol
			} else {
				out[i] = l + eol
			}
		}
		return out
	}
}

// Rewrite returns lines with values applied: each variable that is already
// set has its last assignment replaced in place, the rest are inserted where
// Plan puts them. Every other line is returned verbatim and in order, so an
// empty values map returns lines unchanged.
func Rewrite(lines []string, values map[string]string, opts Options) []string {
	if len(values) == 0 {
		return append([]string(nil), lines...)
	}
	plan := Plan(lines, sortedKeys(values))
	return Emit(lines, plan, values, opts)
}

// Emit applies a previously computed plan to lines.
func Emit(lines []string, plan *EditPlan, values map[string]string, opts Options) []string {
	eol := opts.eol(lines)
	before := make(map[int][]string)
	var atEnd []string
	for _, in := range plan.Insertions {
		if in.AtEnd() {
			atEnd = append(atEnd, in.Name)
		} else {
			before[in.Before] = append(before[in.Before], in.Name)
		}
	}
	updates := make(map[int]Assignment, len(plan.Updates))
	for _, a := range plan.Updates {
		updates[a.Start] = a
	}

	out := make([]string, 0, len(lines)+len(values)*2)
	for i := 0; i < len(lines); {
		for _, name := range before[i] {
			out = append(out, FormatAssignment(name, values[name], opts.WrapWidth, eol)...)
		}
		if a, ok := updates[i]; ok {
			out = append(out, FormatAssignment(a.Name, values[a.Name], opts.WrapWidth, eol)...)
			i += a.Span
			continue
		}
		out = append(out, lines[i])
		i++
	}
	if len(atEnd) > 0 {
		if n := len(out); n > 0 {
			out[n-1] = finalizer.EnsureTrailingNewline(out[n-1], eol)
		}
		out = append(out, eol)
		for _, name := range atEnd {
			out = append(out, FormatAssignment(name, values[name], opts.WrapWidth, eol)...)
		}
	}
	return out
}

// SplitLines splits content into lines that keep their terminators. The
// result joins back to content exactly.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
