// Package release cuts a lintrunner release: it regenerates the changelog,
// bumps the manifest version, commits, tags and pushes.
package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/VoxDroid/lintrunner/internal/executor"
)

// Defaults for Options fields left empty.
const (
	DefaultManifest     = "pyproject.toml"
	DefaultChangelog    = "CHANGELOG.md"
	DefaultRemote       = "origin"
	DefaultBranch       = "main"
	DefaultChangelogCmd = "git-cliff"
)

// Options describes one release.
type Options struct {
	Version string
	// Dir is the repository root. Empty means the current directory.
	Dir          string
	Manifest     string
	Changelog    string
	Remote       string
	Branch       string
	ChangelogCmd string
	// DryRun runs the read-only preflight, then hands the mutating steps to
	// the Releaser's DryRunner, which only prints them.
	DryRun bool

	Stdout io.Writer
	Stderr io.Writer
}

func (o *Options) defaults() {
	if o.Manifest == "" {
		o.Manifest = DefaultManifest
	}
	if o.Changelog == "" {
		o.Changelog = DefaultChangelog
	}
	if o.Remote == "" {
		o.Remote = DefaultRemote
	}
	if o.Branch == "" {
		o.Branch = DefaultBranch
	}
	if o.ChangelogCmd == "" {
		o.ChangelogCmd = DefaultChangelogCmd
	}
	if o.Stdout == nil {
		o.Stdout = io.Discard
	}
	if o.Stderr == nil {
		o.Stderr = io.Discard
	}
}

// Releaser runs release steps through a Runner.
type Releaser struct {
	Runner executor.Runner
	// DryRunner receives the mutating steps of a dry run. It defaults to a
	// dry, verbose executor.
	DryRunner executor.Runner
	// LookPath defaults to exec.LookPath.
	LookPath func(file string) (string, error)
}

// New returns a Releaser backed by the real executor.
func New(verbose bool) *Releaser {
	return &Releaser{
		Runner:    executor.New(false, verbose),
		DryRunner: executor.New(true, true),
		LookPath:  exec.LookPath,
	}
}

var versionLine = regexp.MustCompile(`(?m)^(\s*version\s*=\s*")([^"]*)(")`)

// NormalizeVersion strips a leading "v" and checks the rest is a full
// major.minor.patch semver. It returns the bare version and the tag.
func NormalizeVersion(v string) (string, string, error) {
	bare := strings.TrimPrefix(strings.TrimSpace(v), "v")
	tag := "v" + bare
	core, _, _ := strings.Cut(tag, "+")
	if bare == "" || !semver.IsValid(tag) || semver.Canonical(tag) != core {
		return "", "", fmt.Errorf("invalid release version %q: want MAJOR.MINOR.PATCH", v)
	}
	return bare, tag, nil
}

// BumpVersion rewrites the first `version = "..."` line in content.
func BumpVersion(content []byte, version string) ([]byte, error) {
	loc := versionLine.FindSubmatchIndex(content)
	if loc == nil {
		return nil, errors.New("no version line found")
	}
	out := make([]byte, 0, len(content)+len(version))
	out = append(out, content[:loc[4]]...)
	out = append(out, version...)
	out = append(out, content[loc[5]:]...)
	return out, nil
}

type step struct {
	desc string
	argv []string
	// fn runs in-process instead of argv.
	fn func() error
}

// Release performs the release. Every step is attempted only after the
// previous one succeeded; preflight failures leave the repository untouched.
func (r *Releaser) Release(ctx context.Context, opts Options) error {
	opts.defaults()
	if r.LookPath == nil {
		r.LookPath = exec.LookPath
	}
	if r.DryRunner == nil {
		r.DryRunner = executor.New(true, true)
	}
	version, tag, err := NormalizeVersion(opts.Version)
	if err != nil {
		return err
	}
	slog.Debug("starting release", "version", version, "os", runtime.GOOS, "dry_run", opts.DryRun)

	manifest := opts.Manifest
	if !filepath.IsAbs(manifest) && opts.Dir != "" {
		manifest = filepath.Join(opts.Dir, manifest)
	}
	changelogArgv := executor.SplitArgs(opts.ChangelogCmd)
	if len(changelogArgv) == 0 {
		return fmt.Errorf("invalid changelog command %q", opts.ChangelogCmd)
	}

	bumped, err := r.preflight(ctx, opts, tag, manifest, changelogArgv[0], version)
	if err != nil {
		return err
	}

	steps := []step{
		{desc: "generate changelog", argv: append(changelogArgv, "--tag", tag, "--output", opts.Changelog)},
		{desc: "bump version in " + opts.Manifest, fn: func() error {
			st, err := os.Stat(manifest)
			if err != nil {
				return err
			}
			return os.WriteFile(manifest, bumped, st.Mode().Perm())
		}},
		{desc: "stage release files", argv: []string{"git", "add", opts.Changelog, opts.Manifest}},
		{desc: "commit", argv: []string{"git", "commit", "-m", "Release " + tag}},
		{desc: "tag", argv: []string{"git", "tag", "-a", tag, "-m", tag}},
		{desc: "push branch", argv: []string{"git", "push", opts.Remote, opts.Branch}},
		{desc: "push tag", argv: []string{"git", "push", opts.Remote, tag}},
	}
	runner := r.Runner
	if opts.DryRun {
		runner = r.DryRunner
	}
	for i, s := range steps {
		_, _ = fmt.Fprintf(opts.Stdout, "==> [%d/%d] %s\n", i+1, len(steps), s.desc)
		var err error
		switch {
		case s.fn != nil && opts.DryRun:
			_, _ = fmt.Fprintf(opts.Stdout, "dry-run: %s\n", s.desc)
		case s.fn != nil:
			err = s.fn()
		default:
			err = runner.ExecuteArgs(ctx, s.argv, opts.Dir, nil, opts.Stdout, opts.Stderr)
		}
		if err != nil {
			return fmt.Errorf("release step %q failed: %w", s.desc, err)
		}
	}
	if !opts.DryRun {
		_, _ = fmt.Fprintf(opts.Stdout, "Released %s\n", tag)
	}
	return nil
}

// preflight checks everything it can without mutating anything and returns
// the bumped manifest content.
func (r *Releaser) preflight(ctx context.Context, opts Options, tag, manifest, changelogBin, version string) ([]byte, error) {
	for _, bin := range []string{"git", changelogBin} {
		if _, err := r.LookPath(bin); err != nil {
			return nil, fmt.Errorf("%s not found in PATH", bin)
		}
	}
	if err := r.Runner.ExecuteArgs(ctx, []string{"git", "rev-parse", "--git-dir"}, opts.Dir, nil, io.Discard, io.Discard); err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	// rev-parse fails when the tag is absent.
	if err := r.Runner.ExecuteArgs(ctx, []string{"git", "rev-parse", "-q", "--verify", "refs/tags/" + tag}, opts.Dir, nil, io.Discard, io.Discard); err == nil {
		return nil, fmt.Errorf("tag %s already exists", tag)
	}
	content, err := os.ReadFile(manifest)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	bumped, err := BumpVersion(content, version)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.Manifest, err)
	}
	return bumped, nil
}
