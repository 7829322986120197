package overlay

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fulmenhq/recipeneat/pkg/datastore"
	"github.com/fulmenhq/recipeneat/pkg/logger"
	"github.com/fulmenhq/recipeneat/pkg/recipe"
)

var recipesSegment = regexp.MustCompile(`/(recipes-[^/]+)/`)

// FindLayerDir returns the nearest ancestor directory of fn that holds a
// conf/layer.conf, or "" when fn is not inside a layer.
func FindLayerDir(fn string) string {
	dir := filepath.Dir(fn)
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "layer.conf")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// AppendPath works out where the append file for the recipe described by
// store (its FILE variable) belongs inside destLayerDir. The recipe's
// subdirectory within its own layer is reused when the destination layer's
// BBFILES accepts it. Otherwise the longest BBFILES pattern under the layer
// that picks up .bbappend files is turned into a path, and pathOK is false
// when there is no such pattern either.
func AppendPath(store datastore.Store, destLayerDir string, wildcardVersion bool) (path string, pathOK bool, err error) {
	destLayerDir, err = filepath.Abs(destLayerDir)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", recipe.ErrIO, err)
	}
	recipeFile := datastore.GetString(store, "FILE")
	if recipeFile == "" {
		return "", false, fmt.Errorf("%w: FILE is not set", recipe.ErrInvalidInput)
	}
	recipeFn := strings.TrimSuffix(filepath.Base(recipeFile), filepath.Ext(recipeFile))
	if wildcardVersion && strings.Contains(recipeFn, "_") {
		recipeFn = strings.SplitN(recipeFn, "_", 2)[0] + "_%"
	}
	appendFn := recipeFn + ".bbappend"

	conf := store.CreateCopy()
	conf.SetVar("BBFILES", "")
	conf.SetVar("LAYERDIR", destLayerDir)
	layerConf := filepath.Join(destLayerDir, "conf", "layer.conf")
	if err := datastore.ParseConfigFile(layerConf, conf); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return "", false, fmt.Errorf("%w: parse %s: %w", recipe.ErrIO, layerConf, err)
		}
		logger.Warn("Destination layer has no layer configuration", logger.String("path", layerConf))
	}

	origLayerDir := FindLayerDir(recipeFile)
	if origLayerDir == "" {
		return "", false, fmt.Errorf("%w: unable to determine layer directory containing %s", recipe.ErrNotFound, recipeFile)
	}
	relDir, err := filepath.Rel(origLayerDir, filepath.Dir(recipeFile))
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", recipe.ErrInvalidInput, err)
	}
	path = filepath.Join(destLayerDir, relDir, appendFn)

	closest := ""
	for _, spec := range strings.Fields(datastore.GetString(conf, "BBFILES")) {
		if fileMatch(spec, path) {
			return path, true, nil
		}
		if strings.HasPrefix(spec, destLayerDir) && fileMatch(filepath.Base(spec), "test.bbappend") {
			if len(spec) > len(closest) {
				closest = spec
			}
		}
	}
	if closest == "" {
		return path, false, nil
	}

	subdir, err := filepath.Rel(destLayerDir, filepath.Dir(closest))
	if err != nil {
		return path, false, nil
	}
	if m := recipesSegment.FindStringSubmatch(recipeFile); m != nil {
		segs := strings.Split(filepath.ToSlash(subdir), "/")
		for i, s := range segs {
			if s == "recipes-*" {
				segs[i] = m[1]
			}
		}
		subdir = filepath.FromSlash(strings.Join(segs, "/"))
	}
	subdir = strings.ReplaceAll(subdir, "*", strings.SplitN(recipeFn, "_", 2)[0])
	subdir = strings.ReplaceAll(subdir, "?", "a")
	return filepath.Join(destLayerDir, subdir, appendFn), true, nil
}

// fileMatch reports whether name matches a BBFILES-style glob. Malformed
// patterns match nothing.
func fileMatch(pattern, name string) bool {
	ok, err := doublestar.Match(filepath.ToSlash(pattern), filepath.ToSlash(name))
	return err == nil && ok
}
