package recipe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/recipeneat/pkg/datastore"
	"github.com/fulmenhq/recipeneat/pkg/ignore"
	"github.com/fulmenhq/recipeneat/pkg/logger"
	"github.com/fulmenhq/recipeneat/pkg/safeio"
)

// CopyRecipeFiles copies the local files of a recipe into tgtDir: files
// referenced by SRC_URI and files pulled in with include/require
// (BBINCLUDED) that live under the recipe's directory. Paths outside that
// directory are returned instead of copied. With wholeDir the entire recipe
// directory is copied rather than the individual files, minus what its
// .gitignore and .recipeneatignore exclude.
func CopyRecipeFiles(ctx context.Context, store datastore.Store, fetcher datastore.Fetcher, tgtDir string, wholeDir, download bool) ([]string, error) {
	recipeFile := datastore.GetString(store, "FILE")
	if recipeFile == "" {
		return nil, fmt.Errorf("%w: FILE is not set", ErrInvalidInput)
	}
	uris := strings.Fields(datastore.GetString(store, "SRC_URI"))
	if download {
		if err := fetcher.Download(ctx, uris); err != nil {
			return nil, fmt.Errorf("fetch sources: %w", err)
		}
	}
	local, err := fetcher.LocalPaths(ctx, uris)
	if err != nil {
		return nil, fmt.Errorf("resolve sources: %w", err)
	}

	bbDir := dirWithSep(recipeFile)
	for _, inc := range strings.Fields(datastore.GetString(store, "BBINCLUDED")) {
		if !safeio.IsContained(bbDir, inc) {
			continue
		}
		if _, err := os.Stat(inc); err == nil {
			local = append(local, inc)
		}
	}

	var remotes []string
	for _, p := range local {
		if !safeio.IsContained(bbDir, p) {
			remotes = append(remotes, p)
			continue
		}
		if wholeDir {
			continue
		}
		rel, err := filepath.Rel(bbDir, p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		dst := filepath.Join(tgtDir, rel)
		if err := safeio.CopyFile(p, dst, true); err != nil {
			return nil, fmt.Errorf("%w: copy %s: %w", ErrIO, p, err)
		}
		logger.Debug("Copied recipe file", logger.String("src", p), logger.String("dst", dst))
	}
	if wholeDir {
		matcher, err := ignore.NewMatcher(bbDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}
		if err := safeio.CopyTree(bbDir, tgtDir, matcher.Match); err != nil {
			return nil, fmt.Errorf("%w: copy %s: %w", ErrIO, bbDir, err)
		}
		logger.Debug("Copied recipe directory", logger.String("src", bbDir), logger.String("dst", tgtDir))
	}
	return remotes, nil
}
