package recipe

import "strings"

// LineKind is the classification of one physical line of a recipe.
type LineKind int

const (
	// Passthrough lines are copied verbatim.
	Passthrough LineKind = iota
	// Continuation lines belong to the assignment opened on an earlier line.
	Continuation
	// AssignmentStart lines open an assignment to a tracked variable.
	AssignmentStart
	// OrderingAnchor lines set a variable or task from the ordering manifest.
	OrderingAnchor
)

// String returns the name of the kind
func (k LineKind) String() string {
	switch k {
	case Continuation:
		return "continuation"
	case AssignmentStart:
		return "assignment"
	case OrderingAnchor:
		return "anchor"
	default:
		return "passthrough"
	}
}

// Line is the result of classifying one physical line.
type Line struct {
	Kind LineKind
	// Name and Operator are set for AssignmentStart.
	Name     string
	Operator string
	// Anchor is the manifest entry the line starts with. It may be set for an
	// AssignmentStart too, when the tracked variable is itself canonical.
	Anchor string
	// Continued reports whether the line ends with a continuation marker.
	Continued bool
}

// operators are checked longest first so "??=" is not read as "?=".
var operators = []string{"??=", "?=", ":=", "+=", "=+", ".=", "=.", "="}

var anchorDecorations = []string{"_append", "_prepend"}

// Classify determines what role line plays given the tracked variable names.
// open must be true when the previous physical line continued an assignment.
// Ambiguous lines resolve to the most specific rule; Classify never fails.
func Classify(line string, tracked []string, open bool) Line {
	res := Line{Continued: continues(line)}
	if open {
		res.Kind = Continuation
		return res
	}
	res.Anchor = matchAnchor(line)
	for _, name := range tracked {
		if op, ok := matchAssignment(line, name); ok {
			res.Kind = AssignmentStart
			res.Name = name
			res.Operator = op
			return res
		}
	}
	if res.Anchor != "" {
		res.Kind = OrderingAnchor
	}
	return res
}

func continues(line string) bool {
	return strings.HasSuffix(strings.TrimRight(line, " \t\r\n"), `\`)
}

// matchAssignment reports whether line assigns name, and with which operator.
func matchAssignment(line, name string) (string, bool) {
	if name == "" || !strings.HasPrefix(line, name) {
		return "", false
	}
	rest := strings.TrimLeft(line[len(name):], " \t")
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			return op, true
		}
	}
	return "", false
}

// matchAnchor returns the manifest entry line starts with, allowing any number
// of _append/_prepend decorations before the operator or function parens.
func matchAnchor(line string) string {
	for _, p := range progression {
		if !strings.HasPrefix(line, p) {
			continue
		}
		rest := line[len(p):]
		for stripped := true; stripped; {
			stripped = false
			for _, d := range anchorDecorations {
				if strings.HasPrefix(rest, d) {
					rest = rest[len(d):]
					stripped = true
				}
			}
		}
		if rest != "" && strings.ContainsRune(" \t?:=(", rune(rest[0])) {
			return p
		}
	}
	return ""
}
