// Package vcs answers the version control questions lintrunner needs: what
// is the current revision, and which files changed or exist.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/VoxDroid/lintrunner/internal/executor"
)

// VersionControl describes the operations lintrunner needs from a version
// control system. All returned paths are absolute.
type VersionControl interface {
	// Root returns the repository root.
	Root() string
	// Head returns the revision of the working copy parent.
	Head(ctx context.Context) (string, error)
	// MergeBaseWith returns the most recent common ancestor of Head and ref.
	MergeBaseWith(ctx context.Context, ref string) (string, error)
	// ChangedFiles returns files changed relative to relativeTo plus
	// uncommitted changes. With an empty relativeTo, the files touched by
	// the head commit are used. Deleted files are omitted.
	ChangedFiles(ctx context.Context, relativeTo string) ([]string, error)
	// AllFiles returns every tracked text file, optionally restricted to
	// the directory under.
	AllFiles(ctx context.Context, under string) ([]string, error)
}

// Detect returns the version control system managing dir. Git is preferred;
// Sapling is used when dir is inside a Sapling checkout that git does not
// recognize.
func Detect(ctx context.Context, r executor.Runner, dir string) (VersionControl, error) {
	if root, err := output(ctx, r, dir, "git", "rev-parse", "--show-toplevel"); err == nil {
		return &Git{root: strings.TrimSpace(root), runner: r}, nil
	}
	if root, err := output(ctx, r, dir, "sl", "root"); err == nil {
		return &Sapling{root: strings.TrimSpace(root), runner: r}, nil
	}
	return nil, fmt.Errorf("%s is not inside a git or sapling repository", dir)
}

func output(ctx context.Context, r executor.Runner, dir string, argv ...string) (string, error) {
	var out bytes.Buffer
	if err := r.ExecuteArgs(ctx, argv, dir, nil, &out, io.Discard); err != nil {
		return "", err
	}
	return out.String(), nil
}

func lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// existingAbs joins rel paths onto root, drops files that no longer exist,
// resolves symlinks and returns a sorted, de-duplicated list.
func existingAbs(root string, rel []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range rel {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, p)
		}
		if st, err := os.Stat(abs); err != nil || st.IsDir() {
			continue
		}
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
	}
	sort.Strings(out)
	return out
}
