package lint

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/VoxDroid/lintrunner/internal/config"
)

// PathOptions selects the files to lint. At most one of Paths, PathsCmd,
// PathsFrom and AllFiles may be set; with none set, the files changed
// relative to Revision (or the merge base with MergeBaseWith, or HEAD) are
// used.
type PathOptions struct {
	Paths         []string
	PathsCmd      string
	PathsFrom     string
	AllFiles      bool
	Revision      string
	MergeBaseWith string
	// OnlyUnderConfigDir drops paths outside the config directory.
	OnlyUnderConfigDir bool
}

func (o PathOptions) validate() error {
	if o.PathsCmd != "" && o.PathsFrom != "" {
		return fmt.Errorf("--paths-cmd and --paths-from cannot be used together")
	}
	if o.PathsCmd != "" && len(o.Paths) > 0 {
		return fmt.Errorf("--paths-cmd cannot be used with explicitly specified paths")
	}
	if o.PathsFrom != "" && len(o.Paths) > 0 {
		return fmt.Errorf("--paths-from cannot be used with explicitly specified paths")
	}
	if o.AllFiles && (len(o.Paths) > 0 || o.PathsCmd != "" || o.PathsFrom != "") {
		return fmt.Errorf("--all-files cannot be combined with other path selections")
	}
	if o.Revision != "" && o.MergeBaseWith != "" {
		return fmt.Errorf("--revision and --merge-base-with cannot be used together")
	}
	return nil
}

// resolvePaths returns the absolute, de-duplicated paths to lint.
func (s *Session) resolvePaths(ctx context.Context, opts PathOptions) ([]string, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	var paths []string
	switch {
	case len(opts.Paths) > 0:
		paths, err = existing(cwd, opts.Paths)
	case opts.PathsCmd != "":
		paths, err = s.pathsFromCmd(ctx, cwd, opts.PathsCmd)
	case opts.PathsFrom != "":
		paths, err = pathsFromFile(cwd, opts.PathsFrom, s.Stdin)
	default:
		paths, err = s.pathsFromVCS(ctx, opts)
	}
	if err != nil {
		return nil, err
	}

	if opts.OnlyUnderConfigDir {
		paths = under(s.Config.Dir(), paths)
	}
	slog.Debug("resolved paths", "count", len(paths))
	return paths, nil
}

func (s *Session) pathsFromCmd(ctx context.Context, cwd, command string) ([]string, error) {
	var out bytes.Buffer
	if err := s.Exec.Execute(ctx, command, cwd, nil, &out, s.Stderr); err != nil {
		return nil, fmt.Errorf("failed to run --paths-cmd: %w", err)
	}
	return existing(cwd, splitLines(out.String()))
}

func pathsFromFile(cwd, name string, stdin io.Reader) ([]string, error) {
	var r io.Reader
	if name == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		r = stdin
	} else {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read --paths-from file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if l := strings.TrimSpace(sc.Text()); l != "" {
			lines = append(lines, l)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read --paths-from file: %w", err)
	}
	return existing(cwd, lines)
}

func (s *Session) pathsFromVCS(ctx context.Context, opts PathOptions) ([]string, error) {
	repo, err := s.DetectVCS(ctx, s.Config.Dir())
	if err != nil {
		return nil, err
	}
	if opts.AllFiles {
		return repo.AllFiles(ctx, "")
	}
	relativeTo := opts.Revision
	mergeBaseWith := opts.MergeBaseWith
	if relativeTo == "" && mergeBaseWith == "" {
		mergeBaseWith = s.Config.MergeBaseWith
	}
	if relativeTo == "" && mergeBaseWith != "" {
		base, err := repo.MergeBaseWith(ctx, mergeBaseWith)
		if err != nil {
			return nil, fmt.Errorf("could not find merge base with %s: %w", mergeBaseWith, err)
		}
		slog.Debug("linting relative to merge base", "ref", mergeBaseWith, "base", base)
		relativeTo = base
	}
	return repo.ChangedFiles(ctx, relativeTo)
}

// existing makes paths absolute against cwd and fails on the first one
// that does not exist.
func existing(cwd string, paths []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, p := range paths {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(cwd, p)
		}
		abs, err := config.Canonical(abs)
		if err != nil {
			return nil, fmt.Errorf("Failed to lint non-existent file: %s", p)
		}
		if !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
	}
	return out, nil
}

func under(dir string, paths []string) []string {
	prefix := filepath.Clean(dir) + string(filepath.Separator)
	var out []string
	for _, p := range paths {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}

func splitLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
