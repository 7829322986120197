// Package gitctx reports the git state of the layers recipeneat edits: the
// repository root used as the default base for diff headers, and which of
// the files about to be rewritten already carry uncommitted changes.
package gitctx

import (
	"errors"
	"path/filepath"
	"sort"

	git "github.com/go-git/go-git/v5"
)

// RepoContext captures a minimal view of the repository containing a path.
type RepoContext struct {
	Root          string   `json:"root"`
	Branch        string   `json:"branch,omitempty"`
	GitSHA        string   `json:"git_sha,omitempty"`
	ModifiedFiles []string `json:"modified_files"`
}

// Collect gathers the repository context for target. It returns nil without
// an error when target is not inside a git work tree.
func Collect(target string) (*RepoContext, error) {
	repo, root, err := open(target)
	if repo == nil || err != nil {
		return nil, err
	}
	ctx := &RepoContext{Root: root}

	// An unborn HEAD (no commits yet) still has a worktree status.
	if head, err := repo.Head(); err == nil {
		ctx.Branch = head.Name().Short()
		ctx.GitSHA = head.Hash().String()
	}

	files, err := modified(repo)
	if err != nil {
		return nil, err
	}
	for f := range files {
		ctx.ModifiedFiles = append(ctx.ModifiedFiles, f)
	}
	sort.Strings(ctx.ModifiedFiles)
	return ctx, nil
}

// RepoRoot returns the top of the work tree containing path.
func RepoRoot(path string) (string, bool) {
	repo, root, err := open(path)
	if repo == nil || err != nil {
		return "", false
	}
	return root, true
}

// DirtyFiles returns those of paths that have staged or unstaged changes in
// their repository. Paths outside any repository are ignored.
func DirtyFiles(paths []string) ([]string, error) {
	type repoState struct {
		root  string
		files map[string]struct{}
	}
	byRoot := make(map[string]*repoState)

	var dirty []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		repo, root, err := open(filepath.Dir(abs))
		if err != nil {
			return nil, err
		}
		if repo == nil {
			continue
		}
		st, ok := byRoot[root]
		if !ok {
			files, err := modified(repo)
			if err != nil {
				return nil, err
			}
			st = &repoState{root: root, files: files}
			byRoot[root] = st
		}
		rel, err := filepath.Rel(st.root, abs)
		if err != nil {
			continue
		}
		if _, ok := st.files[filepath.ToSlash(rel)]; ok {
			dirty = append(dirty, p)
		}
	}
	return dirty, nil
}

func open(target string) (*git.Repository, string, error) {
	repo, err := git.PlainOpenWithOptions(target, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	wt, err := repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return repo, wt.Filesystem.Root(), nil
}

func modified(repo *git.Repository) (map[string]struct{}, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	st, err := wt.Status()
	if err != nil {
		return nil, err
	}
	files := make(map[string]struct{})
	for path, s := range st {
		// Consider both staged and unstaged changes
		if s.Staging != git.Unmodified || s.Worktree != git.Unmodified {
			files[filepath.ToSlash(path)] = struct{}{}
		}
	}
	return files, nil
}
