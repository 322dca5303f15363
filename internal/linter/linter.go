// Package linter turns configured linters into runnable units: it decides
// which paths a linter applies to, invokes its command, and collects the
// lint messages it prints.
package linter

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/VoxDroid/lintrunner/internal/config"
	"github.com/VoxDroid/lintrunner/internal/executor"
	"github.com/VoxDroid/lintrunner/internal/lintmsg"
)

const (
	pathsFilePlaceholder = "{{PATHSFILE}}"
	dryRunPlaceholder    = "{{DRYRUN}}"
)

// Linter is a single configured linter bound to the config file that
// defined it.
type Linter struct {
	Code        string
	Include     []string
	Exclude     []string
	Command     []string
	InitCommand []string
	IsFormatter bool
	// ConfigPath is the primary config file. Patterns are matched and
	// commands run relative to its directory.
	ConfigPath string

	runner executor.Runner
}

// FromConfig builds linters from cfg, validating each command and pattern.
func FromConfig(cfg *config.Config, r executor.Runner) ([]*Linter, error) {
	if r == nil {
		r = executor.New(false, false)
	}
	var out []*Linter
	for _, lc := range cfg.Linters {
		if len(lc.Command) == 0 {
			return nil, fmt.Errorf("invalid linter configuration: '%s' has an empty command list", lc.Code)
		}
		for _, p := range append(append([]string{}, lc.IncludePatterns...), lc.ExcludePatterns...) {
			if !doublestar.ValidatePattern(p) {
				return nil, fmt.Errorf("invalid linter configuration: '%s' has an invalid pattern %q", lc.Code, p)
			}
		}
		out = append(out, &Linter{
			Code:        lc.Code,
			Include:     lc.IncludePatterns,
			Exclude:     lc.ExcludePatterns,
			Command:     lc.Command,
			InitCommand: lc.InitCommand,
			IsFormatter: lc.IsFormatter,
			ConfigPath:  cfg.PrimaryPath(),
			runner:      r,
		})
	}
	return out, nil
}

// Dir returns the directory linter commands run in.
func (l *Linter) Dir() string {
	return filepath.Dir(l.ConfigPath)
}

// Matches reports whether path, taken relative to the config directory,
// matches an include pattern and no exclude pattern.
func (l *Linter) Matches(path string) bool {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(l.Dir(), path)
	}
	rel, err := filepath.Rel(l.Dir(), abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	rel = filepath.ToSlash(rel)
	included := false
	for _, p := range l.Include {
		if ok, _ := doublestar.Match(p, rel); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, p := range l.Exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	return true
}

// Filter returns the subset of paths this linter applies to.
func (l *Linter) Filter(paths []string) []string {
	var out []string
	for _, p := range paths {
		if l.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Run invokes the linter on the matching subset of paths and returns the
// messages it reports. A linter that exits non-zero or prints unparseable
// output yields a synthesized error message rather than an error; the
// returned error is reserved for commands that could not be started.
func (l *Linter) Run(ctx context.Context, paths []string) ([]lintmsg.LintMessage, error) {
	matched := l.Filter(paths)
	if len(matched) == 0 {
		slog.Debug("no matching paths, skipping linter", "linter", l.Code)
		return nil, nil
	}

	pathsFile, err := writePathsFile(l.Dir(), matched)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(pathsFile) }()

	argv := make([]string, len(l.Command))
	for i, a := range l.Command {
		argv[i] = strings.ReplaceAll(a, pathsFilePlaceholder, pathsFile)
	}
	slog.Debug("running linter", "linter", l.Code, "paths", len(matched))

	var stdout, stderr bytes.Buffer
	runErr := l.runner.ExecuteArgs(ctx, argv, l.Dir(), nil, &stdout, &stderr)
	if runErr != nil && isSpawnFailure(runErr) {
		return nil, fmt.Errorf("Failed to execute linter command %s: %w", argv[0], runErr)
	}

	msgs := l.parseOutput(stdout.String())
	if runErr != nil {
		msgs = append(msgs, l.commandFailed(runErr, stdout.String(), stderr.String()))
	}
	return msgs, nil
}

func (l *Linter) parseOutput(out string) []lintmsg.LintMessage {
	var msgs []lintmsg.LintMessage
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		m, err := lintmsg.ParseLine(line)
		if err != nil {
			msgs = append(msgs, l.synthesized("bad-output",
				fmt.Sprintf("Failed to deserialize output for lint adapter: '%s'\n\n%v", line, err)))
			continue
		}
		if m.Path != nil && !filepath.IsAbs(*m.Path) {
			m.Path = lintmsg.String(filepath.Join(l.Dir(), *m.Path))
		}
		msgs = append(msgs, m)
	}
	return msgs
}

func (l *Linter) commandFailed(err error, stdout, stderr string) lintmsg.LintMessage {
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Linter command failed with exit code %d.", code)
	if s := strings.TrimSpace(stderr); s != "" {
		fmt.Fprintf(&b, "\n\nstderr:\n%s", s)
	}
	if s := strings.TrimSpace(stdout); s != "" && len(l.parseOutput(stdout)) == 0 {
		fmt.Fprintf(&b, "\n\nstdout:\n%s", s)
	}
	return l.synthesized("command-failed", b.String())
}

func (l *Linter) synthesized(name, description string) lintmsg.LintMessage {
	return lintmsg.LintMessage{
		Code:        l.Code,
		Name:        name,
		Severity:    lintmsg.SeverityError,
		Description: lintmsg.String(description),
	}
}

// Init runs the linter's init_command, substituting {{DRYRUN}} with 1 when
// dryRun is set and 0 otherwise. Linters without an init_command are a
// no-op. Output is streamed to stdout and stderr.
func (l *Linter) Init(ctx context.Context, dryRun bool, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(l.InitCommand) == 0 {
		return nil
	}
	flag := "0"
	if dryRun {
		flag = "1"
	}
	argv := make([]string, len(l.InitCommand))
	for i, a := range l.InitCommand {
		argv[i] = strings.ReplaceAll(a, dryRunPlaceholder, flag)
	}
	slog.Debug("initializing linter", "linter", l.Code, "dry_run", dryRun)
	if err := l.runner.ExecuteArgs(ctx, argv, l.Dir(), stdin, stdout, stderr); err != nil {
		return fmt.Errorf("init for linter %s failed: %w", l.Code, err)
	}
	return nil
}

func writePathsFile(dir string, paths []string) (string, error) {
	f, err := os.CreateTemp("", "lintrunner-paths-*")
	if err != nil {
		return "", fmt.Errorf("create paths file: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		_, _ = w.WriteString(p)
		_ = w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write paths file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write paths file: %w", err)
	}
	return f.Name(), nil
}

func isSpawnFailure(err error) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false
	}
	var pathErr *fs.PathError
	return errors.Is(err, exec.ErrNotFound) || errors.As(err, &pathErr)
}
