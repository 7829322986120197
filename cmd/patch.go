package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"

	"github.com/fulmenhq/recipeneat/internal/gitctx"
	"github.com/fulmenhq/recipeneat/pkg/logger"
	"github.com/fulmenhq/recipeneat/pkg/recipe"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newPatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch [RECIPE_FILE...]",
		Short: "Set variables in recipes",
		Long: `Set variables in BitBake recipes, editing each assignment where it is
currently made and inserting new ones at their canonical position.

Recipe files given as arguments are edited directly. Recipes given with
--snapshot are edited through their parse history, so a variable set in an
.inc file next to the recipe is changed in that file.

With --diff (or --no-op) nothing is written and a unified diff is printed.`,
		RunE: runPatch,
	}

	cmd.Flags().StringArray("snapshot", nil, "Recipe snapshot (YAML, JSON or TOML); repeatable")
	cmd.Flags().StringArray("conf", nil, "Configuration file to parse into each snapshot's datastore; repeatable")
	cmd.Flags().StringArrayP("set", "s", nil, "Variable to set as NAME=VALUE; repeatable")
	cmd.Flags().Bool("diff", false, "Print a unified diff instead of changing files")
	cmd.Flags().Bool("exit-code", false, "With --diff, exit with a distinct code when changes are pending")
	cmd.Flags().String("relpath", "", "Directory diff paths are relative to (default: the git repository root, else the working directory)")
	cmd.Flags().Int("wrap-width", 0, "Width wrapped values are fitted to (default from config)")
	cmd.Flags().Int("diff-context", -1, "Context lines per diff hunk (default from config)")
	cmd.Flags().Int("jobs", 0, "Recipes diffed concurrently (default from config, 0 = one per CPU)")
	return cmd
}

// patchTarget is one recipe to patch.
type patchTarget struct {
	label string
	file  string
	run   func(ctx context.Context, opts recipe.PatchOptions) ([]string, error)
}

func runPatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sets, _ := cmd.Flags().GetStringArray("set")
	values := make(map[string]string, len(sets))
	for _, s := range sets {
		name, value, err := splitPair(s, "--set")
		if err != nil {
			return err
		}
		values[name] = value
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: nothing to set (use --set NAME=VALUE)", recipe.ErrInvalidInput)
	}

	snapshots, _ := cmd.Flags().GetStringArray("snapshot")
	if len(snapshots) == 0 && len(args) == 0 && cfg.Snapshot != "" {
		snapshots = []string{cfg.Snapshot}
	}
	if len(snapshots) == 0 && len(args) == 0 {
		return fmt.Errorf("%w: no recipe given (pass RECIPE_FILE arguments or --snapshot)", recipe.ErrInvalidInput)
	}
	confs, _ := cmd.Flags().GetStringArray("conf")

	targets := make([]patchTarget, 0, len(args)+len(snapshots))
	for _, f := range args {
		path := f
		targets = append(targets, patchTarget{
			label: path,
			file:  path,
			run: func(_ context.Context, opts recipe.PatchOptions) ([]string, error) {
				diff, err := recipe.PatchFile(path, values, opts)
				if diff == "" {
					return nil, err
				}
				return []string{diff}, err
			},
		})
	}
	for _, s := range snapshots {
		env, err := loadRecipeEnv(s, confs)
		if err != nil {
			return err
		}
		targets = append(targets, patchTarget{
			label: s,
			file:  env.Recipe,
			run: func(ctx context.Context, opts recipe.PatchOptions) ([]string, error) {
				return recipe.PatchRecipe(ctx, env.History, env.Recipe, values, opts)
			},
		})
	}

	opts, err := patchOptions(cmd, cfg.Patch.WrapWidth, cfg.Patch.DiffContext)
	if err != nil {
		return err
	}

	if opts.Mode == recipe.ModeApply {
		warnDirty(targets)
		for _, t := range targets {
			if _, err := t.run(cmd.Context(), opts); err != nil {
				return fmt.Errorf("%s: %w", t.label, err)
			}
		}
		return nil
	}

	jobs, _ := cmd.Flags().GetInt("jobs")
	if jobs <= 0 {
		jobs = cfg.Patch.Concurrency
	}
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	diffs, err := diffTargets(cmd.Context(), targets, opts, jobs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	changed := false
	for _, ds := range diffs {
		for _, d := range ds {
			changed = true
			if _, err := fmt.Fprint(out, d); err != nil {
				return err
			}
		}
	}
	if exitCode, _ := cmd.Flags().GetBool("exit-code"); exitCode && changed {
		return errChangesPending
	}
	return nil
}

func patchOptions(cmd *cobra.Command, wrapWidth, diffContext int) (recipe.PatchOptions, error) {
	opts := recipe.PatchOptions{Mode: recipe.ModeApply}
	diffMode, _ := cmd.Flags().GetBool("diff")
	noOp, _ := cmd.Flags().GetBool("no-op")
	if diffMode || noOp {
		opts.Mode = recipe.ModeDiff
	}

	if w, _ := cmd.Flags().GetInt("wrap-width"); w > 0 {
		wrapWidth = w
	}
	opts.WrapWidth = wrapWidth
	if c, _ := cmd.Flags().GetInt("diff-context"); c >= 0 {
		diffContext = c
	}
	opts.DiffContext = diffContext

	relpath, _ := cmd.Flags().GetString("relpath")
	if relpath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return opts, err
		}
		relpath = wd
		if root, ok := gitctx.RepoRoot(wd); ok {
			relpath = root
		}
	}
	opts.RelPath = relpath
	return opts, nil
}

// diffTargets computes the diffs of all targets with at most jobs running at
// once. Results keep the order of targets.
func diffTargets(ctx context.Context, targets []patchTarget, opts recipe.PatchOptions, jobs int) ([][]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([][]string, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			diffs, err := t.run(gctx, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", t.label, err)
			}
			logger.Debug("Computed recipe diff", logger.String("recipe", t.label), logger.Int("files", len(diffs)))
			results[i] = diffs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func warnDirty(targets []patchTarget) {
	files := make([]string, 0, len(targets))
	for _, t := range targets {
		files = append(files, t.file)
	}
	sort.Strings(files)
	dirty, err := gitctx.DirtyFiles(files)
	if err != nil {
		logger.Debug("Unable to read git status", logger.Err(err))
		return
	}
	for _, f := range dirty {
		logger.Warn("Recipe has uncommitted changes", logger.String("file", f))
	}
}
