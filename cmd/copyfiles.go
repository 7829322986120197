package cmd

import (
	"fmt"

	"github.com/fulmenhq/recipeneat/pkg/config"
	"github.com/fulmenhq/recipeneat/pkg/datastore"
	"github.com/fulmenhq/recipeneat/pkg/logger"
	"github.com/fulmenhq/recipeneat/pkg/recipe"
	"github.com/spf13/cobra"
)

func newCopyFilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy-files --snapshot FILE TARGET_DIR",
		Short: "Copy a recipe and its local files to a directory",
		Long: `Copy the local files of a recipe (SRC_URI entries and included files that
live next to the recipe) into TARGET_DIR, keeping their layout. Files that live
elsewhere, such as downloaded sources, are listed instead of copied.`,
		Args: cobra.ExactArgs(1),
		RunE: runCopyFiles,
	}

	cmd.Flags().String("snapshot", "", "Recipe snapshot (YAML, JSON or TOML)")
	cmd.Flags().StringArray("conf", nil, "Configuration file to parse into the datastore; repeatable")
	cmd.Flags().Bool("whole-dir", false, "Copy the entire recipe directory")
	cmd.Flags().Bool("download", false, "Require remote sources to be present in DL_DIR")
	return cmd
}

func runCopyFiles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	confs, _ := cmd.Flags().GetStringArray("conf")
	env, err := loadRecipeEnv(snapshotFlag(cmd, cfg), confs)
	if err != nil {
		return err
	}
	if datastore.GetString(env.Store, "DL_DIR") == "" {
		if cache, err := config.GetCacheDir(); err == nil {
			env.Store.SetVar("DL_DIR", cache)
		}
	}

	noOp, _ := cmd.Flags().GetBool("no-op")
	if noOp {
		logger.Info(fmt.Sprintf("Would copy files of %s to %s", env.Recipe, args[0]))
		return nil
	}

	wholeDir, _ := cmd.Flags().GetBool("whole-dir")
	download, _ := cmd.Flags().GetBool("download")
	remotes, err := recipe.CopyRecipeFiles(cmd.Context(), env.Store, datastore.NewLocalFetcher(env.Store), args[0], wholeDir, download)
	if err != nil {
		return err
	}
	for _, r := range remotes {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "not copied: %s\n", r); err != nil {
			return err
		}
	}
	return nil
}
