//go:build windows

package executor

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
)

// Interactive PTY execution is unavailable on Windows; init commands fall
// back to plain pipes.
var isTerminal = func(_ uintptr) bool {
	return false
}

var ptyStarter = func(_ *exec.Cmd, _ io.Reader, _, _ io.Writer) (*bytes.Buffer, *bytes.Buffer, error) {
	return &bytes.Buffer{}, &bytes.Buffer{}, fmt.Errorf("pty not supported on windows")
}
