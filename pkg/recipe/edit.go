package recipe

import (
	"regexp"
	"strings"
)

// Replacement is an EditFunc's decision for one assignment.
type Replacement struct {
	// Keep leaves the original lines untouched.
	Keep bool
	// Drop removes the assignment altogether.
	Drop bool
	// Value is the new value, or Items when List is set.
	Value string
	Items []string
	List  bool
	// Op replaces the operator; "" keeps the original one.
	Op string
	// Indent is the number of spaces before continuation items, or -1 to
	// align them just past the opening quote.
	Indent int
	// MinBreak puts the first list item on the assignment line.
	MinBreak bool
}

// Keep is the Replacement that leaves an assignment as it is.
func Keep() Replacement { return Replacement{Keep: true} }

// Drop is the Replacement that removes an assignment.
func Drop() Replacement { return Replacement{Drop: true} }

// EditFunc decides what happens to an assignment found by EditLines. The
// assignment's Value is the raw text between the quotes (or braces), with
// continuation markers removed.
type EditFunc func(a Assignment) Replacement

type varMatcher struct {
	re     *regexp.Regexp
	isFunc bool
}

// EditLines walks lines and hands every assignment to one of names to fn.
// Function definitions are selected by a name ending in "()". Lines of
// assignments fn keeps, and all other lines, are copied unchanged; when an
// edit leaves two blank lines in a row, the second is dropped. updated
// reports whether anything was rewritten or removed.
func EditLines(lines []string, names []string, fn EditFunc) (updated bool, out []string) {
	eol := Options{}.eol(lines)
	matchers := make([]varMatcher, 0, len(names))
	for _, name := range names {
		if strings.HasSuffix(name, "()") {
			base := strings.TrimSpace(strings.TrimSuffix(name, "()"))
			matchers = append(matchers, varMatcher{
				re:     regexp.MustCompile(`^(` + regexp.QuoteMeta(base) + `)[ \t]*\([ \t]*\)[ \t]*\{`),
				isFunc: true,
			})
			continue
		}
		matchers = append(matchers, varMatcher{
			re: regexp.MustCompile(`^(` + regexp.QuoteMeta(name) + `)[ \t]*[?+:.]*=[+.]*[ \t]*(["'])`),
		})
	}

	var (
		inVar       string
		isFunc      bool
		varsetStart string
		varEnd      string
		fullValue   string
		varLines    []string
		start       int
		checkSpace  bool
	)

	handleEnd := func() bool {
		op := strings.TrimSpace(varsetStart[len(strings.TrimSuffix(inVar, "()")):])
		if isFunc {
			op = ""
		}
		a := Assignment{Name: inVar, Operator: op, Value: fullValue, Start: start, Span: len(varLines), Func: isFunc}
		r := fn(a)
		if r.Drop {
			return true
		}
		if r.Keep || (!r.List && r.Value == fullValue && (r.Op == "" || r.Op == op)) {
			out = append(out, varLines...)
			return false
		}
		varsetNew := varsetStart
		if r.Op != "" && r.Op != op {
			varsetNew = inVar + " " + r.Op
		}
		indent := strings.Repeat(" ", max(r.Indent, 0))
		if r.Indent == -1 {
			indent = strings.Repeat(" ", len(varsetNew)+2)
		}
		out = append(out, renderAssignment(varsetNew, r, isFunc, indent, eol)...)
		return true
	}

	for i, line := range lines {
		if inVar != "" {
			value := strings.TrimRight(line, " \t\r\n")
			varLines = append(varLines, line)
			if isFunc {
				fullValue += "\n" + value
			} else if value != "" {
				fullValue += value[:len(value)-1]
			}
			if strings.HasSuffix(value, varEnd) {
				if isFunc {
					if strings.Count(fullValue, "{")-strings.Count(fullValue, "}") >= 0 {
						continue
					}
					fullValue = fullValue[:len(fullValue)-1]
				}
				if handleEnd() {
					updated = true
					checkSpace = true
				}
				inVar = ""
			}
			continue
		}

		matched := false
		for _, m := range matchers {
			sub := m.re.FindStringSubmatch(line)
			if sub == nil {
				continue
			}
			var parts []string
			if m.isFunc {
				varEnd = "}"
				parts = strings.SplitN(line, "{", 2)
			} else {
				varEnd = sub[2]
				parts = strings.SplitN(line, varEnd, 2)
			}
			varsetStart = strings.TrimRight(parts[0], " \t")
			value := strings.TrimRight(parts[1], " \t\r\n")
			if !m.isFunc {
				value = strings.TrimSuffix(value, `\`)
			}
			fullValue = value
			varLines = []string{line}
			start = i
			isFunc = m.isFunc
			inVar = sub[1]
			if isFunc {
				inVar += "()"
			}
			if strings.HasSuffix(value, varEnd) {
				fullValue = fullValue[:len(fullValue)-1]
				if handleEnd() {
					updated = true
					checkSpace = true
				}
				inVar = ""
			}
			matched = true
			break
		}
		if matched {
			continue
		}
		if checkSpace {
			checkSpace = false
			if n := len(out); n > 0 && isBlankLine(out[n-1]) && isBlankLine(line) {
				continue
			}
		}
		out = append(out, line)
	}
	if inVar != "" {
		// unterminated at end of input
		out = append(out, varLines...)
	}
	return updated, out
}

// renderAssignment writes a replacement value in the layout requested by r.
func renderAssignment(varset string, r Replacement, isFunc bool, indent, eol string) []string {
	var out []string
	if isFunc {
		if r.List {
			out = append(out, varset+" {"+eol)
			for _, item := range r.Items {
				out = append(out, indent+item+eol)
			}
			return append(out, "}"+eol)
		}
		body := r.Value
		if !strings.HasPrefix(body, "\n") {
			body = "\n" + body
		}
		if !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		text := varset + " {" + body + "}"
		for _, l := range strings.Split(text, "\n") {
			out = append(out, l+eol)
		}
		return out
	}
	if !r.List {
		return []string{varset + ` "` + r.Value + `"` + eol}
	}
	items := r.Items
	switch {
	case len(items) == 0:
		return []string{varset + ` ""` + eol}
	case r.MinBreak && len(items) == 1:
		return []string{varset + ` "` + items[0] + `"` + eol}
	case r.MinBreak:
		out = append(out, varset+` "`+items[0]+` \`+eol)
		items = items[1:]
	default:
		out = append(out, varset+` " \`+eol)
	}
	for _, item := range items {
		out = append(out, indent+item+` \`+eol)
	}
	return append(out, indent+`"`+eol)
}

func isBlankLine(line string) bool {
	return strings.TrimRight(line, "\r\n") == ""
}
