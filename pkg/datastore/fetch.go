package datastore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Fetcher resolves source references (SRC_URI entries) to local files.
type Fetcher interface {
	// Download makes the files behind uris available locally.
	Download(ctx context.Context, uris []string) error
	// LocalPaths returns the local path of each uri, in order.
	LocalPaths(ctx context.Context, uris []string) ([]string, error)
}

// LocalFetcher resolves file:// references through FILESPATH and maps remote
// references into DL_DIR. It never touches the network: Download only checks
// that files are already present.
type LocalFetcher struct {
	Store Store
}

// NewLocalFetcher returns a fetcher reading FILESPATH and DL_DIR from store.
func NewLocalFetcher(store Store) *LocalFetcher {
	return &LocalFetcher{Store: store}
}

// Download checks that every referenced file is present locally.
func (f *LocalFetcher) Download(ctx context.Context, uris []string) error {
	paths, err := f.LocalPaths(ctx, uris)
	if err != nil {
		return err
	}
	for i, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if isLocalURI(uris[i]) {
				return fmt.Errorf("%w: %s", ErrNotFound, uris[i])
			}
			return fmt.Errorf("%w: downloading %s", ErrUnsupported, uris[i])
		}
	}
	return nil
}

// LocalPaths returns where each uri lives on disk.
func (f *LocalFetcher) LocalPaths(ctx context.Context, uris []string) ([]string, error) {
	paths := make([]string, 0, len(uris))
	for _, uri := range uris {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := f.localPath(uri)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func (f *LocalFetcher) localPath(uri string) (string, error) {
	scheme, rest := splitURI(uri)
	if scheme == "file" {
		if filepath.IsAbs(rest) {
			return rest, nil
		}
		for _, dir := range filepath.SplitList(GetString(f.Store, "FILESPATH")) {
			if dir == "" {
				continue
			}
			candidate := filepath.Join(dir, rest)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		return "", fmt.Errorf("%w: %s not in FILESPATH", ErrNotFound, uri)
	}
	dlDir := GetString(f.Store, "DL_DIR")
	if dlDir == "" {
		return "", fmt.Errorf("%w: DL_DIR is not set for %s", ErrNotFound, uri)
	}
	return filepath.Join(dlDir, path.Base(rest)), nil
}

// splitURI returns the scheme and path of a source reference with any
// ;name=value parameters removed.
func splitURI(uri string) (scheme, p string) {
	if i := strings.Index(uri, ";"); i >= 0 {
		uri = uri[:i]
	}
	scheme, rest, found := strings.Cut(uri, "://")
	if !found {
		return "", uri
	}
	if scheme == "file" {
		return scheme, rest
	}
	// drop the host part
	if i := strings.Index(rest, "/"); i >= 0 {
		return scheme, rest[i:]
	}
	return scheme, rest
}

func isLocalURI(uri string) bool {
	scheme, _ := splitURI(uri)
	return scheme == "file"
}
