package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fulmenhq/recipeneat/pkg/config"
	"github.com/fulmenhq/recipeneat/pkg/datastore"
	"github.com/fulmenhq/recipeneat/pkg/logger"
	"github.com/fulmenhq/recipeneat/pkg/recipe"
	"github.com/spf13/cobra"
)

// recipeEnv is a parsed recipe as the subcommands see it.
type recipeEnv struct {
	Recipe  string
	Store   datastore.Store
	History datastore.HistoryService
}

// loadConfig returns the global configuration merged with the project
// configuration of the working directory.
func loadConfig() (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadProjectConfig(wd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errConfig, err)
	}
	return cfg, nil
}

// errConfig marks configuration failures so they exit with ConfigError.
var errConfig = errors.New("configuration error")

// loadRecipeEnv reads a snapshot and layers conf files over its variables.
// FILE defaults to the snapshot's recipe and vice versa.
func loadRecipeEnv(snapshotPath string, confs []string) (*recipeEnv, error) {
	if snapshotPath == "" {
		return nil, fmt.Errorf("%w: no snapshot given (use --snapshot or set snapshot in recipeneat.yaml)", recipe.ErrInvalidInput)
	}
	snap, err := datastore.LoadSnapshot(snapshotPath)
	if err != nil {
		return nil, err
	}
	store := snap.Store()
	for _, conf := range confs {
		logger.Debug("Parsing configuration file", logger.String("file", conf))
		if err := datastore.ParseConfigFile(conf, store); err != nil {
			return nil, err
		}
	}

	env := &recipeEnv{Recipe: snap.Recipe, Store: store, History: snap.HistoryService()}
	if file := datastore.GetString(store, "FILE"); file == "" && env.Recipe != "" {
		store.SetVar("FILE", env.Recipe)
	} else if env.Recipe == "" {
		env.Recipe = file
	}
	if env.Recipe == "" {
		return nil, fmt.Errorf("%w: snapshot %s names no recipe", recipe.ErrInvalidInput, snapshotPath)
	}
	return env, nil
}

// snapshotFlag resolves --snapshot against the configured default.
func snapshotFlag(cmd *cobra.Command, cfg *config.Config) string {
	if p, _ := cmd.Flags().GetString("snapshot"); p != "" {
		return p
	}
	return cfg.Snapshot
}

// splitPair splits "KEY=VALUE"; the key must be a single non-empty word.
func splitPair(s, what string) (string, string, error) {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" || strings.ContainsAny(key, " \t") {
		return "", "", fmt.Errorf("%w: %s %q must have the form NAME=VALUE", recipe.ErrInvalidInput, what, s)
	}
	return key, value, nil
}
