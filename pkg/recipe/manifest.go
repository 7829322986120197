package recipe

// progression is the canonical order of variables and tasks in a recipe.
// It is used to find a place for variables that are not yet set.
var progression = []string{
	"SUMMARY", "DESCRIPTION", "HOMEPAGE", "BUGTRACKER", "SECTION", "LICENSE",
	"LIC_FILES_CHKSUM", "PROVIDES", "DEPENDS", "PR", "PV", "SRCREV", "SRC_URI",
	"S", "do_fetch", "do_unpack", "do_patch", "EXTRA_OECONF", "do_configure",
	"EXTRA_OEMAKE", "do_compile", "do_install", "do_populate_sysroot",
	"INITSCRIPT", "USERADD", "GROUPADD", "PACKAGES", "FILES", "RDEPENDS",
	"RRECOMMENDS", "RSUGGESTS", "RPROVIDES", "RREPLACES", "RCONFLICTS",
	"ALLOW_EMPTY", "do_package", "do_deploy",
}

// Variables that are sometimes long but should not be wrapped.
var nowrapVars = map[string]bool{"SUMMARY": true, "HOMEPAGE": true, "BUGTRACKER": true}

var listVars = map[string]bool{"SRC_URI": true, "LIC_FILES_CHKSUM": true}

// metaVars are the descriptive variables used by Localise to pick the file
// that holds a recipe's own settings.
var metaVars = []string{"SUMMARY", "DESCRIPTION", "HOMEPAGE", "BUGTRACKER", "SECTION"}

var progressionIndex = func() map[string]int {
	m := make(map[string]int, len(progression))
	for i, name := range progression {
		m[name] = i
	}
	return m
}()

// ProgressionIndex returns the position of name in the ordering manifest, or -1.
func ProgressionIndex(name string) int {
	if i, ok := progressionIndex[name]; ok {
		return i
	}
	return -1
}

// Format selects how an assignment value is laid out when written.
type Format int

const (
	// FormatWrapped wraps the assignment to the configured width.
	FormatWrapped Format = iota
	// FormatNoWrap writes the assignment on a single line.
	FormatNoWrap
	// FormatList writes one whitespace-separated item per continuation line.
	FormatList
)

// String returns the name of the format
func (f Format) String() string {
	switch f {
	case FormatNoWrap:
		return "nowrap"
	case FormatList:
		return "list"
	default:
		return "wrapped"
	}
}

// FormatFor returns the formatting policy for a variable name.
func FormatFor(name string) Format {
	switch {
	case nowrapVars[name]:
		return FormatNoWrap
	case listVars[name]:
		return FormatList
	default:
		return FormatWrapped
	}
}
