package recipe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fulmenhq/recipeneat/pkg/datastore"
	"github.com/fulmenhq/recipeneat/pkg/format/finalizer"
	"github.com/fulmenhq/recipeneat/pkg/logger"
	"github.com/fulmenhq/recipeneat/pkg/safeio"
)

// Mode selects what PatchFile does with the rewritten content.
type Mode int

const (
	// ModeApply replaces the file on disk.
	ModeApply Mode = iota
	// ModeDiff returns a unified diff and leaves the file alone.
	ModeDiff
)

// PatchOptions configures PatchFile and PatchRecipe.
type PatchOptions struct {
	Options
	Mode Mode
	// RelPath is the directory diff headers are made relative to; "" means
	// the working directory.
	RelPath string
	// DiffContext is the number of context lines per hunk; 0 means DefaultDiffContext.
	DiffContext int
}

// PatchFile updates or inserts values in one recipe file, assuming it is
// already known to be the right file to change. In ModeDiff the file is not
// touched and the unified diff is returned ("" if nothing would change). In
// ModeApply the file is atomically replaced when its content changes.
func PatchFile(path string, values map[string]string, opts PatchOptions) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}
	if !finalizer.IsProcessableText(content) {
		return "", fmt.Errorf("%w: %s is not a text file", ErrInvalidInput, path)
	}

	body, _ := finalizer.RemoveBOM(content)
	bom := content[:len(content)-len(body)]
	from := SplitLines(string(body))
	plan := Plan(from, sortedKeys(values))
	plan.File = path
	logPlan(plan)
	to := Emit(from, plan, values, opts.Options)

	if opts.Mode == ModeDiff {
		rel, err := relativePath(path, opts.RelPath)
		if err != nil {
			return "", err
		}
		diff, err := UnifiedDiff(withBOM(from, bom), withBOM(to, bom), rel, opts.DiffContext)
		if err != nil {
			return "", fmt.Errorf("diff %s: %w", path, err)
		}
		return diff, nil
	}

	if equalLines(from, to) {
		logger.Debug("Recipe already up to date", logger.String("file", path))
		return "", nil
	}
	if err := safeio.WriteFileAtomic(path, append(append([]byte(nil), bom...), strings.Join(to, "")...)); err != nil {
		return "", fmt.Errorf("%w: write %s: %w", ErrIO, path, err)
	}
	logger.Info(fmt.Sprintf("Updated %s", path), logger.Int("variables", len(values)))
	return "", nil
}

// withBOM puts a byte order mark back on the first line so diffs match the
// bytes on disk.
func withBOM(lines []string, bom []byte) []string {
	if len(bom) == 0 || len(lines) == 0 {
		return lines
	}
	out := make([]string, len(lines))
	copy(out, lines)
	out[0] = string(bom) + out[0]
	return out
}

// PatchRecipe sets values for a recipe, changing each variable in the file it
// is currently set in when that file belongs to the recipe (see Localise).
// In ModeDiff it returns one diff per file that would change.
func PatchRecipe(ctx context.Context, history datastore.HistoryService, recipeFile string, values map[string]string, opts PatchOptions) ([]string, error) {
	names := sortedKeys(values)
	varFiles, err := VarFiles(ctx, history, recipeFile, names)
	if err != nil {
		return nil, err
	}
	locs := Localise(recipeFile, varFiles, names)

	files := make([]string, 0, len(locs))
	for f := range locs {
		files = append(files, f)
	}
	sort.Strings(files)

	var diffs []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return diffs, err
		}
		vals := make(map[string]string, len(locs[f]))
		for _, name := range locs[f] {
			vals[name] = values[name]
		}
		diff, err := PatchFile(f, vals, opts)
		if err != nil {
			return diffs, err
		}
		if diff != "" {
			diffs = append(diffs, diff)
		}
	}
	return diffs, nil
}

func relativePath(path, base string) (string, error) {
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrIO, err)
		}
		base = wd
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return "", fmt.Errorf("%w: relative path of %s: %v", ErrInvalidInput, path, err)
	}
	return filepath.ToSlash(rel), nil
}

func logPlan(plan *EditPlan) {
	for _, in := range plan.Insertions {
		if in.AtEnd() {
			logger.Debug("Appending variable", logger.String("file", plan.File), logger.String("name", in.Name))
			continue
		}
		logger.Debug("Inserting variable", logger.String("file", plan.File), logger.String("name", in.Name),
			logger.String("before", in.Anchor), logger.Int("line", in.Before+1))
	}
}
