//go:build !windows

package executor

import (
	"bytes"
	"io"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// isTerminal reports whether fd refers to a terminal. Tests override it.
var isTerminal = func(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// silenceEcho turns off local echo on the caller's terminal while an
// interactive init command runs, returning the state to restore.
var silenceEcho = func(fd int) (*term.State, error) {
	old, err := term.GetState(fd)
	if err != nil {
		return nil, err
	}
	if err := setEcho(fd, false); err != nil {
		return nil, err
	}
	return old, nil
}

var restoreTerminal = func(fd int, state *term.State) error { return term.Restore(fd, state) }

// ptyStarter runs cmd with a PTY as stdin and controlling terminal, so that
// init commands that prompt (pip asking to proceed, sudo reading /dev/tty)
// can be answered. Stdout and stderr stay pipes and are both streamed to
// the caller and captured.
var ptyStarter = func(cmd *exec.Cmd, stdin io.Reader, stdout, stderr io.Writer) (*bytes.Buffer, *bytes.Buffer, error) {
	ptmx, pts, err := pty.Open()
	if err != nil {
		return &bytes.Buffer{}, &bytes.Buffer{}, err
	}

	cmd.Stdin = pts
	var bout, berr bytes.Buffer
	cmd.Stdout = io.MultiWriter(&bout, stdout)
	cmd.Stderr = io.MultiWriter(&berr, stderr)
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setsid = true
	cmd.SysProcAttr.Setctty = true

	if err := cmd.Start(); err != nil {
		_ = pts.Close()
		_ = ptmx.Close()
		return &bytes.Buffer{}, &bytes.Buffer{}, err
	}
	_ = pts.Close()

	if f, ok := stdin.(interface{ Fd() uintptr }); ok && isTerminal(f.Fd()) {
		if old, err := silenceEcho(int(f.Fd())); err == nil {
			defer func() { _ = restoreTerminal(int(f.Fd()), old) }()
		}
	}

	go func() { _, _ = io.Copy(ptmx, stdin) }()
	// prompts written straight to /dev/tty
	go func() { _, _ = io.Copy(stdout, ptmx) }()

	err = cmd.Wait()
	_ = ptmx.Close()
	return &bout, &berr, err
}
