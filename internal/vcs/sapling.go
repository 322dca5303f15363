package vcs

import (
	"context"
	"fmt"
	"strings"

	"github.com/VoxDroid/lintrunner/internal/executor"
)

// Sapling implements VersionControl with the `sl` CLI.
type Sapling struct {
	root   string
	runner executor.Runner
}

// NewSapling returns a Sapling rooted at root.
func NewSapling(root string, r executor.Runner) *Sapling {
	return &Sapling{root: root, runner: r}
}

// Root returns the checkout root.
func (s *Sapling) Root() string { return s.root }

func (s *Sapling) sl(ctx context.Context, args ...string) (string, error) {
	out, err := output(ctx, s.runner, s.root, append([]string{"sl"}, args...)...)
	if err != nil {
		return "", fmt.Errorf("sl %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

// Head returns the working copy parent.
func (s *Sapling) Head(ctx context.Context) (string, error) {
	out, err := s.sl(ctx, "whereami")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// MergeBaseWith returns the common ancestor of the working copy parent and ref.
func (s *Sapling) MergeBaseWith(ctx context.Context, ref string) (string, error) {
	out, err := s.sl(ctx, "log", "-T", "{node}", "-r", fmt.Sprintf("ancestor(., %s)", ref))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ChangedFiles returns files modified or added since relativeTo (or the
// working copy parent's own changes), plus unknown files.
func (s *Sapling) ChangedFiles(ctx context.Context, relativeTo string) ([]string, error) {
	rev := relativeTo
	if rev == "" {
		rev = ".^"
	}
	changed, err := s.sl(ctx, "status", "--no-status", "-ma", "--rev", rev)
	if err != nil {
		return nil, err
	}
	unknown, err := s.sl(ctx, "status", "--no-status", "-u")
	if err != nil {
		return nil, err
	}
	files := append(lines(changed), lines(unknown)...)
	return existingAbs(s.root, files), nil
}

// AllFiles lists every tracked file.
func (s *Sapling) AllFiles(ctx context.Context, under string) ([]string, error) {
	args := []string{"files"}
	if under != "" {
		args = append(args, under)
	}
	out, err := s.sl(ctx, args...)
	if err != nil {
		return nil, err
	}
	return existingAbs(s.root, lines(out)), nil
}
