package recipe

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Insertion places a variable that is not yet set. Before is the index of the
// line the new assignment is written in front of, or -1 for end of file.
type Insertion struct {
	Name   string
	Before int
	Anchor string
}

// AtEnd reports whether the insertion goes to the end of the file.
func (in Insertion) AtEnd() bool { return in.Before < 0 }

// EditPlan describes how one file is changed: variables updated where they
// are currently set, and variables inserted at planned positions. Insertions
// are kept in emission order.
type EditPlan struct {
	File       string
	Updates    map[string]Assignment
	Insertions []Insertion
}

// Empty reports whether the plan changes nothing.
func (p *EditPlan) Empty() bool {
	return len(p.Updates) == 0 && len(p.Insertions) == 0
}

// Plan computes the edit plan for setting names in lines. A name already set
// is updated at its last assignment. Any other canonical name is inserted in
// front of the first later manifest line with a greater manifest index;
// names with no such anchor, or not in the manifest, go to the end of file.
func Plan(lines []string, names []string) *EditPlan {
	plan := &EditPlan{Updates: ScanAssignments(lines, names)}

	var pending []string
	for _, name := range names {
		if _, ok := plan.Updates[name]; !ok {
			pending = append(pending, name)
		}
	}
	sortByProgression(pending)

	open := false
	for i, line := range lines {
		if len(pending) == 0 {
			break
		}
		c := Classify(line, names, open)
		open = c.Continued
		if c.Kind == Continuation || c.Anchor == "" {
			continue
		}
		anchorIdx := ProgressionIndex(c.Anchor)
		remaining := pending[:0]
		for _, name := range pending {
			idx := ProgressionIndex(name)
			if idx > -1 && idx < anchorIdx {
				plan.Insertions = append(plan.Insertions, Insertion{Name: name, Before: i, Anchor: c.Anchor})
				continue
			}
			remaining = append(remaining, name)
		}
		pending = remaining
	}
	for _, name := range pending {
		plan.Insertions = append(plan.Insertions, Insertion{Name: name, Before: -1})
	}
	return plan
}

// sortByProgression orders names by manifest index; names outside the
// manifest come first, ties are broken by name.
func sortByProgression(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		a, b := ProgressionIndex(names[i]), ProgressionIndex(names[j])
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})
}

// Localise decides which file each variable should be changed in, given the
// files they are currently set in (see VarFiles). Files outside the recipe's
// own directory tree (classes, shared include files) are never chosen; an
// unset variable goes to the first local file holding a descriptive variable,
// or to the recipe itself.
func Localise(recipeFile string, varFiles map[string]string, names []string) map[string][]string {
	fnDir := dirWithSep(recipeFile)

	firstMetaFile := ""
	for _, v := range metaVars {
		if f := varFiles[v]; f != "" && strings.HasPrefix(dirWithSep(f), fnDir) {
			firstMetaFile = f
			break
		}
	}

	fileVars := make(map[string][]string)
	for _, v := range names {
		actual := varFiles[v]
		if actual == "" {
			if firstMetaFile != "" {
				actual = firstMetaFile
			} else {
				actual = recipeFile
			}
		}
		if !strings.HasPrefix(dirWithSep(actual), fnDir) {
			actual = recipeFile
		}
		fileVars[actual] = append(fileVars[actual], v)
	}
	return fileVars
}

func dirWithSep(path string) string {
	return filepath.Dir(path) + string(os.PathSeparator)
}
