// Package cmd implements the lintrunner command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/lintrunner/internal/config"
	"github.com/VoxDroid/lintrunner/internal/executor"
	"github.com/VoxDroid/lintrunner/internal/lint"
	"github.com/VoxDroid/lintrunner/internal/logger"
	"github.com/VoxDroid/lintrunner/internal/render"
	"github.com/VoxDroid/lintrunner/internal/store"
	"github.com/VoxDroid/lintrunner/internal/version"
)

var (
	configFlag         string
	verbose            bool
	outputFlag         string
	dataPath           string
	forceColor         bool
	takeFlag           string
	skipFlag           string
	pathsCmd           string
	pathsFrom          string
	allFiles           bool
	revision           string
	mergeBaseWith      string
	onlyUnderConfigDir bool
	applyPatches       bool
	teeJSON            string
)

var rootCmd = &cobra.Command{
	Use:   "lintrunner [paths...]",
	Short: "lintrunner runs the linters configured in .lintrunner.toml",
	Long: "lintrunner finds .lintrunner.toml, decides which files to lint, runs every configured linter\n" +
		"in parallel and shows what they report. Example:\n  lintrunner --all-files",
	Args:              cobra.ArbitraryArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLint(cmd, args, false)
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&configFlag, "config", "", "Path(s) to lintrunner config files, comma separated (default: search for "+config.DefaultConfigName+")")
	f.BoolVarP(&verbose, "verbose", "v", false, "Verbose logging to stderr")
	f.StringVar(&outputFlag, "output", string(render.FormatDefault), "Output format: default, json or oneline")
	f.StringVar(&dataPath, "data-path", "", "Directory for lintrunner's run history (default $"+config.EnvHome+" or ~/.lintrunner)")
	f.BoolVar(&forceColor, "force-color", false, "Style output even when stdout is not a terminal")
	f.StringVar(&takeFlag, "take", "", "Comma-separated linter codes to run")
	f.StringVar(&skipFlag, "skip", "", "Comma-separated linter codes to skip")
	f.StringVar(&pathsCmd, "paths-cmd", "", "Shell command whose output lists the paths to lint")
	f.StringVar(&pathsFrom, "paths-from", "", "File listing the paths to lint, one per line ('-' for stdin)")
	f.BoolVar(&allFiles, "all-files", false, "Lint every file tracked by version control")
	f.StringVarP(&revision, "revision", "r", "", "Lint files changed since this revision")
	f.StringVarP(&mergeBaseWith, "merge-base-with", "m", "", "Lint files changed since the merge base with this ref")
	f.BoolVar(&onlyUnderConfigDir, "only-lint-under-config-dir", false, "Only lint files under the config file's directory")
	f.BoolVarP(&applyPatches, "apply-patches", "a", false, "Apply patches suggested by linters")
	f.StringVar(&teeJSON, "tee-json", "", "Also write every lint message as JSON lines to this file")
}

// Execute executes the root command and exits with the run's exit code.
func Execute() {
	os.Exit(execute(os.Args[1:]))
}

var (
	cleanupLogger func()
	// invocationArgs is what the run history records for this invocation.
	invocationArgs []string
)

func execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// cobra falls back to os.Args for nil.
	if args == nil {
		args = []string{}
	}
	invocationArgs = args
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	code := exitCode(err)
	var lintErr *lint.ExitError
	if err != nil && !errors.As(err, &lintErr) {
		slog.Error("lintrunner failed", "err", err)
		_, _ = fmt.Fprintf(rootCmd.ErrOrStderr(), "error: %v\n", err)
	}
	finishRun(code)
	if cleanupLogger != nil {
		cleanupLogger()
		cleanupLogger = nil
	}
	return code
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var lintErr *lint.ExitError
	if errors.As(err, &lintErr) {
		return lintErr.Code
	}
	return 1
}

func setup(cmd *cobra.Command, _ []string) error {
	cleanupLogger = logger.Setup(logger.Config{Verbose: verbose, Stderr: cmd.ErrOrStderr()})
	if dataPath != "" {
		if err := os.Setenv(config.EnvHome, dataPath); err != nil {
			return err
		}
	}
	slog.Debug("starting lintrunner", "version", version.String(), "command", cmd.Name())
	return nil
}

// history records the current invocation. Both are nil when the run store
// could not be opened; linting works without it.
var (
	history *store.Store
	current *store.Run
)

func beginRun(cfg *config.Config) {
	st, err := store.Open()
	if err != nil {
		slog.Warn("run history unavailable", "err", err)
		return
	}
	run, err := st.BeginRun(invocationArgs, cfg.PrimaryPath())
	if err != nil {
		slog.Warn("could not record run", "err", err)
		_ = st.Close()
		return
	}
	history, current = st, run
}

func finishRun(code int) {
	if history == nil {
		return
	}
	if current != nil {
		if err := history.FinishRun(current, code, logger.RunLog()); err != nil {
			slog.Debug("could not finish run record", "err", err)
		}
	}
	_ = history.Close()
	history, current = nil, nil
}

func configPaths() ([]string, error) {
	if configFlag == "" {
		p, err := config.FindConfigFile(config.DefaultConfigName)
		if err != nil {
			return nil, err
		}
		return []string{p}, nil
	}
	var out []string
	for _, p := range splitList(configFlag) {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

// loadSession loads the config and, when record is set, starts recording
// this invocation in the run history.
func loadSession(cmd *cobra.Command, record bool) (*lint.Session, error) {
	paths, err := configPaths()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded config", "paths", cfg.Paths, "linters", len(cfg.Linters))

	var hashes lint.InitHashes
	if record {
		beginRun(cfg)
		if history != nil {
			hashes = history
		}
	}
	s := lint.NewSession(cfg, executor.New(false, verbose), hashes)
	s.Stdin = cmd.InOrStdin()
	s.Stdout = cmd.OutOrStdout()
	s.Stderr = cmd.ErrOrStderr()
	return s, nil
}

func runLint(cmd *cobra.Command, args []string, format bool) error {
	output, err := render.ParseFormat(outputFlag)
	if err != nil {
		return err
	}
	s, err := loadSession(cmd, true)
	if err != nil {
		return err
	}
	color, progress := terminalOutput(cmd.OutOrStdout(), output)
	opts := lint.Options{
		PathOptions: lint.PathOptions{
			Paths:              args,
			PathsCmd:           pathsCmd,
			PathsFrom:          pathsFrom,
			AllFiles:           allFiles,
			Revision:           revision,
			MergeBaseWith:      mergeBaseWith,
			OnlyUnderConfigDir: onlyUnderConfigDir || s.Config.OnlyLintUnderConfigDir,
		},
		Take:         splitList(takeFlag),
		Skip:         splitList(skipFlag),
		ApplyPatches: applyPatches,
		Format:       format,
		TeeJSON:      teeJSON,
		Output:       output,
		Color:        color,
		Progress:     progress,
	}
	return s.Lint(cmd.Context(), opts)
}

// terminalOutput decides on styling and the live progress display. Progress
// needs a real terminal and the default format.
func terminalOutput(w io.Writer, format render.Format) (color, progress bool) {
	f, _ := w.(*os.File)
	tty := render.ShouldColor(false, f)
	return forceColor || tty, tty && format == render.FormatDefault
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
