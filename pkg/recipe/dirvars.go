package recipe

import (
	"sort"
	"strings"

	"github.com/fulmenhq/recipeneat/pkg/datastore"
)

// ReplaceDirVars replaces well-known directories in path with references to
// the lowercase *dir variables that hold them, e.g. /etc becomes
// ${sysconfdir}. Longer directories are substituted first.
func ReplaceDirVars(path string, store datastore.Store) string {
	dirVars := make(map[string]string)
	for _, name := range store.Keys() {
		if !strings.HasSuffix(name, "dir") || strings.ToLower(name) != name {
			continue
		}
		value := datastore.GetString(store, name)
		if strings.HasPrefix(value, "/") && !strings.Contains(value, "\n") {
			dirVars[value] = name
		}
	}

	dirs := make([]string, 0, len(dirVars))
	for d := range dirVars {
		dirs = append(dirs, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, d := range dirs {
		path = strings.ReplaceAll(path, d, "${"+dirVars[d]+"}")
	}
	return path
}
