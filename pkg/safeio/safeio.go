package safeio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// IsContained reports whether path resolves to a location within baseDir.
// Both paths are made absolute first; a path equal to baseDir is contained.
func IsContained(baseDir, path string) bool {
	baseDirAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return false
	}
	pathAbs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(baseDirAbs, pathAbs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// fileMode returns the permission bits of an existing file, or 0644.
func fileMode(path string) os.FileMode {
	var mode os.FileMode = 0o644
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode() & 0o777
		if mode == 0 {
			mode = 0o644
		}
	}
	return mode
}

// WriteFileAtomic replaces path with data. The data is written to a temporary
// file in the same directory, synced, and renamed over path, so readers see
// either the old or the new content and never a partial write. The existing
// file mode is preserved; new files get 0644.
func WriteFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	mode := fileMode(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(mode); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// CopyFile copies src to dst, creating dst's parent directories. With
// preserve set, the source mode and modification time are carried over.
func CopyFile(src, dst string, preserve bool) error {
	in, err := os.Open(src) // #nosec G304 -- caller-selected source file
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	st, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	if err := WriteFileAtomic(dst, data); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if preserve {
		if err := os.Chmod(dst, st.Mode()&0o777); err != nil {
			return err
		}
		if err := os.Chtimes(dst, st.ModTime(), st.ModTime()); err != nil {
			return err
		}
	}
	return nil
}

// CopyTree copies the directory tree rooted at src to dst, preserving file
// modes and modification times. Entries for which skip returns true are left
// out, directories with everything below them; skip may be nil.
func CopyTree(src, dst string, skip func(path string, isDir bool) bool) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel != "." && skip != nil && skip(path, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return CopyFile(path, target, true)
	})
}
