package vcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/VoxDroid/lintrunner/internal/executor"
)

// Git implements VersionControl by shelling out to git.
type Git struct {
	root   string
	runner executor.Runner
}

// NewGit returns a Git rooted at root.
func NewGit(root string, r executor.Runner) *Git {
	return &Git{root: root, runner: r}
}

// Root returns the repository top-level directory.
func (g *Git) Root() string { return g.root }

func (g *Git) git(ctx context.Context, args ...string) (string, error) {
	argv := append([]string{"git", "-c", "core.quotePath=false"}, args...)
	out, err := output(ctx, g.runner, g.root, argv...)
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

// Head returns the commit hash of HEAD.
func (g *Git) Head(ctx context.Context) (string, error) {
	out, err := g.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// MergeBaseWith returns the merge base of HEAD and ref.
func (g *Git) MergeBaseWith(ctx context.Context, ref string) (string, error) {
	out, err := g.git(ctx, "merge-base", "HEAD", ref)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ChangedFiles returns committed changes since relativeTo (or in the head
// commit when relativeTo is empty) together with staged, unstaged and
// untracked changes in the working tree.
func (g *Git) ChangedFiles(ctx context.Context, relativeTo string) ([]string, error) {
	status, err := g.git(ctx, "status", "--porcelain=v1", "--untracked-files=all")
	if err != nil {
		return nil, err
	}
	files := parsePorcelain(status)
	slog.Debug("working tree changes", "count", len(files))

	var committed string
	if relativeTo != "" {
		committed, err = g.git(ctx, "diff", "--name-only", "--diff-filter=d", relativeTo, "HEAD")
		if err != nil {
			return nil, err
		}
	} else {
		committed, err = g.git(ctx, "diff-tree", "--root", "--no-commit-id", "--name-only", "--diff-filter=d", "-r", "HEAD")
		if err != nil {
			// a repository without commits has nothing committed to report
			slog.Debug("no head commit", "err", err)
			committed = ""
		}
	}
	files = append(files, lines(committed)...)
	return existingAbs(g.root, files), nil
}

// AllFiles lists tracked text files, skipping binaries the way `git grep -I`
// does.
func (g *Git) AllFiles(ctx context.Context, under string) ([]string, error) {
	args := []string{"grep", "-Il", "."}
	if under != "" {
		args = append(args, "--", under)
	}
	out, err := g.git(ctx, args...)
	if err != nil {
		// git grep exits 1 when nothing matches
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, err
	}
	return existingAbs(g.root, lines(out)), nil
}

// parsePorcelain extracts paths from `git status --porcelain=v1` output.
// Renames contribute their destination; deletions are dropped.
func parsePorcelain(out string) []string {
	var files []string
	for _, l := range lines(out) {
		if len(l) < 4 {
			continue
		}
		xy, rest := l[:2], l[3:]
		if xy == " D" || xy == "D " || xy == "DD" {
			continue
		}
		if i := strings.Index(rest, " -> "); i >= 0 {
			rest = rest[i+4:]
		}
		files = append(files, unquotePath(rest))
	}
	return files
}

func unquotePath(p string) string {
	if strings.HasPrefix(p, "\"") {
		if u, err := strconv.Unquote(p); err == nil {
			return u
		}
	}
	return p
}
