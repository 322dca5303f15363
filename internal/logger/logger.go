// Package logger configures the process-wide slog logger. Every record is
// captured for the run history; with Verbose set it is also written to
// stderr.
package logger

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Config controls where log records go.
type Config struct {
	// Verbose also writes every record to Stderr.
	Verbose bool
	// Stderr receives verbose output. Nil disables it.
	Stderr io.Writer
}

var (
	mu     sync.RWMutex
	runLog = &lockedBuffer{}
)

// Setup installs a logger and makes it the slog default. The returned
// function restores a discarding logger.
func Setup(cfg Config) func() {
	buf := &lockedBuffer{}
	var w io.Writer = buf
	if cfg.Verbose && cfg.Stderr != nil {
		w = io.MultiWriter(cfg.Stderr, buf)
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	})
	mu.Lock()
	runLog = buf
	mu.Unlock()
	slog.SetDefault(slog.New(h))

	return func() {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	}
}

// RunLog returns everything logged since the last Setup.
func RunLog() string {
	mu.RLock()
	b := runLog
	mu.RUnlock()
	return b.String()
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
