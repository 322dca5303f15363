// Package executor provides command execution functionality.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Executor runs external commands in an OS-aware way.
type Executor struct {
	DryRun  bool
	Verbose bool
	// Env, when non-nil, replaces the child environment.
	Env []string
}

// Runner is an interface for executing commands. It allows tests to inject
// fake implementations without running real processes.
type Runner interface {
	Execute(ctx context.Context, command string, cwd string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error
	ExecuteArgs(ctx context.Context, argv []string, cwd string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error
}

// New returns a Runner backed by the real Executor implementation.
func New(dry, verbose bool) Runner {
	return &Executor{DryRun: dry, Verbose: verbose}
}

// sanitizeCommand normalizes common unicode characters that often get
// inserted by editors (e.g., smart quotes, NBSP, zero-width spaces) and
// converts them to their ASCII equivalents where sensible.
func sanitizeCommand(s string) string {
	r := strings.NewReplacer(
		"\u2018", "'", // left single quote
		"\u2019", "'", // right single quote
		"\u201C", "\"", // left double quote
		"\u201D", "\"", // right double quote
		"\u00A0", " ", // NO-BREAK SPACE
		"\u200B", "", // zero width space
		"\u200E", "", // left-to-right mark
		"\u200F", "", // right-to-left mark
	)
	rp := r.Replace(s)
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, rp)
}

// Execute runs the provided command string using an OS-appropriate shell
// invocation (`bash -c` on Unix, `cmd /C` on Windows). It sanitizes the
// command, validates it for illegal characters or newlines, and then
// executes it writing stdout/stderr to the provided writers.
func (e *Executor) Execute(ctx context.Context, command string, cwd string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error {
	var err error
	command, err = validateAndSanitize(command)
	if err != nil {
		return err
	}

	if handled := e.handleDryRunIfNeeded(command, stdout); handled {
		return nil
	}

	shell, args := shellInvocation(command)
	if err := validateShellAndArgs(shell, args); err != nil {
		return err
	}
	return e.run(ctx, shell, args, cwd, stdin, stdout, stderr)
}

// ExecuteArgs runs argv directly without a shell. argv[0] is resolved on
// PATH (or relative to cwd when it contains a separator).
func (e *Executor) ExecuteArgs(ctx context.Context, argv []string, cwd string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error {
	if len(argv) == 0 {
		return fmt.Errorf("invalid command: empty argument list")
	}
	if handled := e.handleDryRunIfNeeded(shellquote.Join(argv...), stdout); handled {
		return nil
	}
	return e.run(ctx, argv[0], argv[1:], cwd, stdin, stdout, stderr)
}

func (e *Executor) run(ctx context.Context, name string, args []string, cwd string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error {
	slog.Debug("exec", "cmd", shellquote.Join(append([]string{name}, args...)...), "cwd", cwd)
	bout, berr, err := runCommand(ctx, name, args, cwd, stdin, e.Env, stdout, stderr)
	if err != nil {
		return checkExecutionError(err, bout, berr, name, args)
	}
	return nil
}

// runCommand executes name with args, streaming output to the provided
// writers while keeping a copy of both streams for error reporting.
func runCommand(ctx context.Context, name string, args []string, cwd string, stdin io.Reader, env []string, stdout, stderr io.Writer) (*bytes.Buffer, *bytes.Buffer, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if cwd != "" {
		cmd.Dir = cwd
	}
	if env != nil {
		cmd.Env = env
	}
	if f, ok := stdin.(interface{ Fd() uintptr }); ok && isTerminal(f.Fd()) {
		return ptyStarter(cmd, stdin, orDiscard(stdout), orDiscard(stderr))
	}
	cmd.Stdin = stdin
	var bout, berr bytes.Buffer
	cmd.Stdout = teeTo(&bout, stdout)
	cmd.Stderr = teeTo(&berr, stderr)
	if err := cmd.Run(); err != nil {
		return &bout, &berr, err
	}
	return &bout, &berr, nil
}

func teeTo(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

func (e *Executor) handleDryRunIfNeeded(command string, stdout io.Writer) bool {
	if e.DryRun {
		if e.Verbose && stdout != nil {
			_, _ = fmt.Fprintf(stdout, "dry-run: %s\n", command)
		}
		return true
	}
	return false
}

func checkExecutionError(err error, bout, berr *bytes.Buffer, name string, args []string) error {
	outStr := strings.TrimSpace(bout.String())
	errStr := strings.TrimSpace(berr.String())
	if outStr != "" || errStr != "" {
		return fmt.Errorf("command failed: %w (cmd=%s args=%q stdout=%q stderr=%q)", err, name, args, outStr, errStr)
	}
	return fmt.Errorf("command failed: %w (cmd=%s args=%q)", err, name, args)
}

// shellInvocation returns the shell executable and arguments for the platform.
func shellInvocation(command string) (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", command}
	}
	return "bash", []string{"-c", command}
}

func validateShellAndArgs(shell string, args []string) error {
	if _, err := exec.LookPath(shell); err != nil {
		return fmt.Errorf("shell not found in PATH: %s", shell)
	}
	for i, a := range args {
		if strings.IndexFunc(a, isBadControl) != -1 {
			return fmt.Errorf("invalid shell arg[%d]: contains control characters", i)
		}
	}
	return nil
}

func isBadControl(r rune) bool {
	return r == 0 || (r < 32 && r != '\t') || r == 0x7f
}

func validateAndSanitize(command string) (string, error) {
	command = sanitizeCommand(command)
	if err := ValidateCommand(command); err != nil {
		return "", err
	}
	return command, nil
}

// ValidateCommand checks for remaining problematic characters that will
// cause command execution to fail (e.g., newlines and control characters)
// and returns an error describing the problem if one is found.
func ValidateCommand(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("invalid command: empty command")
	}
	if strings.Contains(s, "\n") {
		return fmt.Errorf("invalid command: contains newline characters; each command must be a single line")
	}
	if strings.IndexFunc(s, isBadControl) != -1 {
		return fmt.Errorf("invalid command: contains control characters; remove non-printable characters")
	}
	return nil
}

// SplitArgs splits a command string into tokens respecting single and
// double quotes.
func SplitArgs(s string) []string {
	if toks, err := shellquote.Split(s); err == nil {
		return toks
	}
	return strings.Fields(s)
}
