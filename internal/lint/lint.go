// Package lint runs the configured linters over a set of paths and reports
// what they find.
package lint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/VoxDroid/lintrunner/internal/config"
	"github.com/VoxDroid/lintrunner/internal/executor"
	"github.com/VoxDroid/lintrunner/internal/linter"
	"github.com/VoxDroid/lintrunner/internal/lintmsg"
	"github.com/VoxDroid/lintrunner/internal/progress"
	"github.com/VoxDroid/lintrunner/internal/render"
	"github.com/VoxDroid/lintrunner/internal/vcs"
)

// ExitError carries the process exit code of a lint run that completed but
// found problems.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("lint run finished with exit code %d", e.Code)
}

// InitHashes remembers which config each init ran against.
type InitHashes interface {
	InitHash(configPath string) (string, bool, error)
	SetInitHash(configPath, hash string) error
}

// Session binds a loaded config to the collaborators a run needs.
type Session struct {
	Config *config.Config
	Exec   executor.Runner
	// DetectVCS defaults to vcs.Detect.
	DetectVCS func(ctx context.Context, dir string) (vcs.VersionControl, error)
	// Hashes may be nil, which disables the init staleness warning.
	Hashes InitHashes
	// Jobs bounds how many linters run at once. Zero means one per CPU.
	Jobs int

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Options controls a lint or format run.
type Options struct {
	PathOptions

	Take []string
	Skip []string

	ApplyPatches bool
	// Format runs only formatters, always applies their patches and reports
	// only messages that could not be fixed.
	Format bool
	// TeeJSON, when set, also writes every message as JSON lines to this
	// file.
	TeeJSON string

	Output render.Format
	Color  bool
	// Progress shows live linter status on the alternate screen.
	Progress bool
}

// NewSession returns a Session using the real executor and VCS detection.
func NewSession(cfg *config.Config, r executor.Runner, hashes InitHashes) *Session {
	return &Session{
		Config: cfg,
		Exec:   r,
		Hashes: hashes,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (s *Session) init() {
	if s.Exec == nil {
		s.Exec = executor.New(false, false)
	}
	if s.DetectVCS == nil {
		s.DetectVCS = func(ctx context.Context, dir string) (vcs.VersionControl, error) {
			return vcs.Detect(ctx, s.Exec, dir)
		}
	}
	if s.Stdout == nil {
		s.Stdout = io.Discard
	}
	if s.Stderr == nil {
		s.Stderr = io.Discard
	}
}

// Linters builds the linters selected by take and skip.
func (s *Session) Linters(take, skip []string, formattersOnly bool) ([]*linter.Linter, error) {
	s.init()
	all, err := linter.FromConfig(s.Config, s.Exec)
	if err != nil {
		return nil, err
	}
	selected, err := linter.Select(all, skip, take)
	if err != nil {
		return nil, err
	}
	if formattersOnly {
		selected = linter.Formatters(selected)
	}
	return selected, nil
}

type result struct {
	msgs []lintmsg.LintMessage
	err  error
}

// Lint runs the selected linters and renders their messages. It returns an
// *ExitError when any lint was reported or a linter failed.
func (s *Session) Lint(ctx context.Context, opts Options) error {
	s.init()
	linters, err := s.Linters(opts.Take, opts.Skip, opts.Format)
	if err != nil {
		return err
	}
	s.warnIfInitStale()

	paths, err := s.resolvePaths(ctx, opts.PathOptions)
	if err != nil {
		return err
	}

	msgs, failed := s.run(ctx, linters, paths, opts.Progress)

	if opts.TeeJSON != "" {
		if err := teeJSON(opts.TeeJSON, msgs); err != nil {
			return err
		}
	}

	shown := msgs
	applied := 0
	if opts.ApplyPatches || opts.Format {
		shown, applied, err = s.applyPatches(msgs)
		if err != nil {
			return err
		}
	}

	printer := render.New(s.Stdout, opts.Output, opts.Color)
	if err := printer.Render(shown); err != nil {
		return err
	}
	printer.PatchesApplied(applied)

	if failed || countsTowardExit(shown) {
		return &ExitError{Code: 1}
	}
	return nil
}

// countsTowardExit reports whether any message should fail the run.
// Disabled messages are shown but never fail a run.
func countsTowardExit(msgs []lintmsg.LintMessage) bool {
	for _, m := range msgs {
		if m.Severity != lintmsg.SeverityDisabled {
			return true
		}
	}
	return false
}

func (s *Session) run(ctx context.Context, linters []*linter.Linter, paths []string, showProgress bool) ([]lintmsg.LintMessage, bool) {
	var tracker *progress.Tracker
	if showProgress {
		tracker = progress.New(s.Stdout)
		for _, l := range linters {
			tracker.Add(l.Code, "Running...")
		}
		tracker.Enter()
		defer tracker.Exit()
	}

	results := make([]result, len(linters))
	var g errgroup.Group
	g.SetLimit(s.jobs())
	var mu sync.Mutex
	for i, l := range linters {
		var handle *progress.Handle
		if tracker != nil {
			handle = tracker.Handle(l.Code)
		}
		g.Go(func() error {
			msgs, err := l.Run(ctx, paths)
			mu.Lock()
			results[i] = result{msgs: msgs, err: err}
			mu.Unlock()
			switch {
			case err != nil:
				slog.Debug("linter failed", "linter", l.Code, "err", err)
				handle.Update("Failed: "+err.Error(), true, false)
			case hasFailure(msgs):
				handle.Update("Failed", true, false)
			default:
				handle.Update(fmt.Sprintf("Done (%d message(s))", len(msgs)), true, true)
			}
			return nil
		})
	}
	_ = g.Wait()

	order := make([]int, len(linters))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return linters[order[a]].Code < linters[order[b]].Code })

	var all []lintmsg.LintMessage
	failed := false
	for _, i := range order {
		r := results[i]
		if r.err != nil {
			failed = true
			all = append(all, lintmsg.LintMessage{
				Code:        linters[i].Code,
				Name:        "command-failed",
				Severity:    lintmsg.SeverityError,
				Description: lintmsg.String(r.err.Error()),
			})
			continue
		}
		if hasFailure(r.msgs) {
			failed = true
		}
		all = append(all, r.msgs...)
	}
	return all, failed
}

func (s *Session) jobs() int {
	if s.Jobs > 0 {
		return s.Jobs
	}
	return runtime.NumCPU()
}

// hasFailure reports whether msgs include a message synthesized for a
// linter that crashed or printed garbage.
func hasFailure(msgs []lintmsg.LintMessage) bool {
	for _, m := range msgs {
		if m.Path == nil && m.Severity == lintmsg.SeverityError && (m.Name == "command-failed" || m.Name == "bad-output") {
			return true
		}
	}
	return false
}

func (s *Session) warnIfInitStale() {
	if s.Hashes == nil || !s.Config.HasInitCommands() {
		return
	}
	hash, ok, err := s.Hashes.InitHash(s.Config.PrimaryPath())
	if err != nil {
		slog.Debug("could not read init hash", "err", err)
		return
	}
	if !ok || hash != s.Config.Hash() {
		_, _ = fmt.Fprintln(s.Stderr, "Warning: the lintrunner config has changed since `lintrunner init` last ran. You may need to run `lintrunner init` again.")
	}
}

func teeJSON(path string, msgs []lintmsg.LintMessage) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open --tee-json file: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	for _, m := range msgs {
		if err := enc.Encode(m); err != nil {
			_ = f.Close()
			return fmt.Errorf("write --tee-json file: %w", err)
		}
	}
	return f.Close()
}
