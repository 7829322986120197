package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fulmenhq/recipeneat/internal/gitctx"
	"github.com/fulmenhq/recipeneat/pkg/logger"
	"github.com/fulmenhq/recipeneat/pkg/overlay"
	"github.com/fulmenhq/recipeneat/pkg/recipe"
	"github.com/spf13/cobra"
)

func newAppendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "append --snapshot FILE --layer DIR",
		Short: "Create or update a recipe's .bbappend in a layer",
		Long: `Create or update the .bbappend for a recipe in the destination layer.

Files given with --file are copied next to the append file and added to
SRC_URI; --install also installs them from do_install. Extra lines are merged
into the append file: list values are de-duplicated, single values replaced
and function bodies extended. An existing append file keeps everything the
command does not touch.

With --dry-run (or --no-op) the append file is not written; a diff is printed.`,
		Args: cobra.NoArgs,
		RunE: runAppend,
	}

	cmd.Flags().String("snapshot", "", "Recipe snapshot (YAML, JSON or TOML)")
	cmd.Flags().StringArray("conf", nil, "Configuration file to parse into the datastore (e.g. bblayers.conf); repeatable")
	cmd.Flags().String("layer", "", "Destination layer directory (default from config)")
	cmd.Flags().StringArrayP("file", "f", nil, "File to add as SRC[=NAME], NAME being its existing SRC_URI name; repeatable")
	cmd.Flags().StringArray("install", nil, "Install a --file as SRC=DEST[:MODE], MODE defaulting to 0644; repeatable")
	cmd.Flags().StringArrayP("line", "l", nil, "Extra line to merge, as 'NAME OP VALUE'; repeatable")
	cmd.Flags().StringArray("remove", nil, "Value to remove from a list variable, as NAME=VALUE; repeatable")
	cmd.Flags().String("machine", "", "Make the changes specific to this machine (default from config)")
	cmd.Flags().Bool("wildcard-version", false, "Use a % wildcard for the version in the append file name")
	cmd.Flags().Bool("dry-run", false, "Print the change as a diff without writing anything")
	return cmd
}

func runAppend(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	confs, _ := cmd.Flags().GetStringArray("conf")
	env, err := loadRecipeEnv(snapshotFlag(cmd, cfg), confs)
	if err != nil {
		return err
	}

	req, err := appendRequest(cmd, env)
	if err != nil {
		return err
	}
	if req.DestLayerDir == "" {
		req.DestLayerDir = cfg.Overlay.DefaultLayer
	}
	if req.DestLayerDir == "" {
		return fmt.Errorf("%w: no destination layer (use --layer or set overlay.default_layer)", recipe.ErrInvalidInput)
	}
	if req.Machine == "" {
		req.Machine = cfg.Overlay.Machine
	}
	if !cmd.Flags().Changed("wildcard-version") {
		req.WildcardVersion = cfg.Overlay.WildcardVersion
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noOp, _ := cmd.Flags().GetBool("no-op")
	if dryRun || noOp {
		return previewAppend(cmd, req)
	}

	appendPath, _, err := overlay.AppendPath(req.Store, req.DestLayerDir, req.WildcardVersion)
	if err != nil {
		return err
	}
	checkLayerRepo(req.DestLayerDir, appendPath)

	res, err := overlay.Write(cmd.Context(), req)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "%s: %s\n", res.State, res.AppendPath); err != nil {
		return err
	}
	for _, c := range res.Copied {
		if _, err := fmt.Fprintf(out, "copied: %s\n", c); err != nil {
			return err
		}
	}
	return nil
}

// appendRequest turns the command line into an overlay request. Malformed
// values fail before anything is read from the layer.
func appendRequest(cmd *cobra.Command, env *recipeEnv) (overlay.Request, error) {
	req := overlay.Request{
		Store:    env.Store,
		SrcFiles: map[string]string{},
		Install:  map[string]overlay.InstallSpec{},
	}
	req.DestLayerDir, _ = cmd.Flags().GetString("layer")
	req.Machine, _ = cmd.Flags().GetString("machine")
	req.WildcardVersion, _ = cmd.Flags().GetBool("wildcard-version")

	files, _ := cmd.Flags().GetStringArray("file")
	for _, f := range files {
		src, name, _ := strings.Cut(f, "=")
		if src == "" {
			return req, fmt.Errorf("%w: --file %q names no file", recipe.ErrInvalidInput, f)
		}
		req.SrcFiles[src] = name
	}

	installs, _ := cmd.Flags().GetStringArray("install")
	for _, inst := range installs {
		src, dest, err := splitPair(inst, "--install")
		if err != nil {
			return req, err
		}
		if _, ok := req.SrcFiles[src]; !ok {
			return req, fmt.Errorf("%w: --install %q refers to a file not given with --file", recipe.ErrInvalidInput, inst)
		}
		mode := "0644"
		if d, m, ok := strings.Cut(dest, ":"); ok {
			dest, mode = d, m
		}
		if !strings.HasPrefix(dest, "/") {
			return req, fmt.Errorf("%w: install destination %q must be absolute", recipe.ErrInvalidInput, dest)
		}
		req.Install[src] = overlay.InstallSpec{Dest: dest, Mode: mode}
	}

	lines, _ := cmd.Flags().GetStringArray("line")
	extra, err := overlay.ParseExtraLines(lines)
	if err != nil {
		return req, err
	}
	req.ExtraLines = extra

	removes, _ := cmd.Flags().GetStringArray("remove")
	if len(removes) > 0 {
		req.RemoveValues = make(map[string][]string, len(removes))
	}
	for _, r := range removes {
		name, value, err := splitPair(r, "--remove")
		if err != nil {
			return req, err
		}
		req.RemoveValues[name] = append(req.RemoveValues[name], strings.Fields(value)...)
	}
	return req, nil
}

// previewAppend plans the merge and prints the resulting diff together with
// the files that would be copied.
func previewAppend(cmd *cobra.Command, req overlay.Request) error {
	appendPath, pathOK, err := overlay.AppendPath(req.Store, req.DestLayerDir, req.WildcardVersion)
	if err != nil {
		return err
	}
	if !pathOK {
		logger.Warn("Destination layer does not pick up append files at this path", logger.String("path", appendPath))
	}
	existing, err := os.ReadFile(appendPath) // #nosec G304 -- path derived from the destination layer
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: read %s: %w", recipe.ErrIO, appendPath, err)
	}

	plan, err := overlay.PlanMerge(req, appendPath, existing, exists)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if plan.State != overlay.Unchanged {
		rel := appendPath
		if wd, err := os.Getwd(); err == nil {
			if r, err := filepath.Rel(wd, appendPath); err == nil {
				rel = filepath.ToSlash(r)
			}
		}
		diff, err := recipe.UnifiedDiff(recipe.SplitLines(string(existing)), recipe.SplitLines(string(plan.Content)), rel, 0)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprint(out, diff); err != nil {
			return err
		}
	}
	for _, c := range plan.Copies {
		if _, err := fmt.Fprintf(out, "would copy: %s -> %s\n", c.Src, c.Dst); err != nil {
			return err
		}
	}
	return nil
}

// checkLayerRepo logs the git state of the destination layer and warns when
// the append file already has uncommitted changes.
func checkLayerRepo(layerDir, appendPath string) {
	repo, err := gitctx.Collect(layerDir)
	if err != nil {
		logger.Debug("Unable to read destination layer repository", logger.Err(err))
		return
	}
	if repo == nil {
		return
	}
	logger.Debug("Destination layer repository",
		logger.String("root", repo.Root),
		logger.String("branch", repo.Branch),
		logger.String("commit", repo.GitSHA),
		logger.Int("modified", len(repo.ModifiedFiles)))

	abs, err := filepath.Abs(appendPath)
	if err != nil {
		return
	}
	rel, err := filepath.Rel(repo.Root, abs)
	if err != nil {
		return
	}
	if slices.Contains(repo.ModifiedFiles, filepath.ToSlash(rel)) {
		logger.Warn("Append file has uncommitted changes", logger.String("file", appendPath))
	}
}
