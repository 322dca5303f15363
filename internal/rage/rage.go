// Package rage reports a past lintrunner invocation, either to stdout or to
// a paste service, so it can be attached to a bug report.
package rage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/VoxDroid/lintrunner/internal/executor"
	"github.com/VoxDroid/lintrunner/internal/store"
)

// NothingSelected is printed when the picker is dismissed.
const NothingSelected = "Nothing selected, exiting."

// History is the part of the run store rage reads from.
type History interface {
	PastRuns() ([]store.Run, error)
	PastRun(i int) (store.Run, error)
}

// Picker asks the user to choose one of runs. It returns nil when nothing
// was chosen.
type Picker func(runs []store.Run) (*store.Run, error)

// Options selects the run and where its report goes.
type Options struct {
	// Invocation picks the n-th most recent run; nil opens the picker.
	Invocation *int
	Gist       bool
	Pastry     bool
}

// Rage builds and delivers run reports.
type Rage struct {
	History History
	Runner  executor.Runner
	Pick    Picker
	Stdout  io.Writer
	Stderr  io.Writer
}

// Do selects a run according to opts and prints or uploads its report.
func (r *Rage) Do(ctx context.Context, opts Options) error {
	if opts.Gist && opts.Pastry {
		return fmt.Errorf("--gist and --pastry cannot be used together")
	}
	run, err := r.selectRun(opts)
	if err != nil {
		return err
	}
	if run == nil {
		_, _ = fmt.Fprintln(r.Stdout, NothingSelected)
		return nil
	}
	report, err := store.RunReport(*run)
	if err != nil {
		return fmt.Errorf("getting selected run report: %w", err)
	}
	switch {
	case opts.Gist:
		return r.upload(ctx, report, []string{"gh", "gist", "create", "-"})
	case opts.Pastry:
		return r.upload(ctx, report, []string{"pastry"})
	}
	_, err = io.WriteString(r.Stdout, report)
	return err
}

func (r *Rage) selectRun(opts Options) (*store.Run, error) {
	if opts.Invocation != nil {
		run, err := r.History.PastRun(*opts.Invocation)
		if err != nil {
			return nil, err
		}
		return &run, nil
	}
	runs, err := r.History.PastRuns()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	if r.Pick == nil {
		return nil, fmt.Errorf("no invocation given and no interactive picker available")
	}
	return r.Pick(runs)
}

func (r *Rage) upload(ctx context.Context, report string, argv []string) error {
	slog.Debug("uploading rage report", "cmd", argv[0])
	if err := r.Runner.ExecuteArgs(ctx, argv, "", strings.NewReader(report), r.Stdout, r.Stderr); err != nil {
		return fmt.Errorf("upload report with %s: %w", argv[0], err)
	}
	return nil
}
