// Package progress shows which linters are still running while a lint run
// is in flight.
package progress

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	defaultHeight = 24
	headerLines   = 4
	// one line reserved for the truncation notice
	truncationReserve = 1
)

// Status is the last reported state of one linter.
type Status struct {
	Message   string
	Completed bool
	Success   bool
}

// Tracker holds the status of every linter in a run and, while active,
// redraws them on the terminal's alternate screen.
type Tracker struct {
	mu       sync.Mutex
	statuses map[string]Status

	drawMu sync.Mutex
	out    *termenv.Output
	active bool
	height func() int
}

// New returns a Tracker that draws to w.
func New(w io.Writer) *Tracker {
	return &Tracker{
		statuses: map[string]Status{},
		out:      termenv.NewOutput(w),
		height:   heightOf(w),
	}
}

func heightOf(w io.Writer) func() int {
	return func() int {
		if f, ok := w.(*os.File); ok {
			if _, h, err := term.GetSize(int(f.Fd())); err == nil && h > 0 {
				return h
			}
		}
		return defaultHeight
	}
}

// Enter switches to the alternate screen and starts drawing.
func (t *Tracker) Enter() {
	t.drawMu.Lock()
	if !t.active {
		t.out.AltScreen()
		t.out.HideCursor()
		t.active = true
	}
	t.drawMu.Unlock()
	t.Refresh()
}

// Exit restores the normal screen. It is safe to call more than once.
func (t *Tracker) Exit() {
	t.drawMu.Lock()
	defer t.drawMu.Unlock()
	if t.active {
		t.out.ShowCursor()
		t.out.ExitAltScreen()
		t.active = false
	}
}

// Add registers a linter with an initial message.
func (t *Tracker) Add(code, message string) {
	t.mu.Lock()
	t.statuses[code] = Status{Message: message}
	t.mu.Unlock()
	t.Refresh()
}

// Handle returns a handle the linter identified by code uses to report its
// own status.
func (t *Tracker) Handle(code string) *Handle {
	return &Handle{code: code, tracker: t}
}

// Status returns the current status of code.
func (t *Tracker) Status(code string) (Status, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.statuses[code]
	return s, ok
}

func (t *Tracker) update(code, message string, completed, success bool) {
	t.mu.Lock()
	if _, ok := t.statuses[code]; ok {
		t.statuses[code] = Status{Message: message, Completed: completed, Success: success}
	}
	t.mu.Unlock()
	t.Refresh()
}

// Refresh redraws the display when active.
func (t *Tracker) Refresh() {
	t.drawMu.Lock()
	defer t.drawMu.Unlock()
	if !t.active {
		return
	}
	t.out.ClearScreen()
	t.out.MoveCursor(1, 1)
	_, _ = io.WriteString(t.out, t.View())
}

// View renders the current state. Successful linters are hidden and the
// list is truncated to fit the terminal height.
func (t *Tracker) View() string {
	t.mu.Lock()
	total := len(t.statuses)
	var running, done, failed int
	var codes []string
	snapshot := make(map[string]Status, total)
	for code, s := range t.statuses {
		snapshot[code] = s
		switch {
		case !s.Completed:
			running++
		case s.Success:
			done++
		default:
			failed++
		}
		if !s.Completed || !s.Success {
			codes = append(codes, code)
		}
	}
	t.mu.Unlock()
	sort.Strings(codes)

	var b strings.Builder
	switch {
	case total == 0:
		b.WriteString(t.out.String("No linters to run").Faint().String() + "\n")
		return b.String()
	case done == total:
		b.WriteString(t.out.String("All linters completed successfully!").Foreground(t.out.Color("2")).String() + "\n")
		return b.String()
	}

	b.WriteString(t.out.String("Running linters...").Bold().String() + "\n")
	var parts []string
	if running > 0 {
		parts = append(parts, t.colored(fmt.Sprint(running), "3")+" running")
	}
	if done > 0 {
		parts = append(parts, t.colored(fmt.Sprint(done), "2")+" done")
	}
	if failed > 0 {
		parts = append(parts, t.colored(fmt.Sprint(failed), "1")+" failed")
	}
	fmt.Fprintf(&b, "(%s of %d)\n\n", strings.Join(parts, ", "), total)

	available := availableLines(t.height())
	shown := codes
	truncated := 0
	if len(codes) > available {
		shown = codes[:available]
		truncated = len(codes) - available
	}
	for _, code := range shown {
		s := snapshot[code]
		symbol, msg := t.colored("●", "3"), t.out.String(s.Message).Faint().String()
		if s.Completed {
			symbol, msg = t.colored("✗", "1"), t.colored(s.Message, "1")
		}
		fmt.Fprintf(&b, "  %s %s %s\n", symbol, t.out.String(code).Bold(), msg)
	}
	if truncated > 0 {
		plural := "s"
		if truncated == 1 {
			plural = ""
		}
		fmt.Fprintf(&b, "\n%s %s more linter%s running...\n",
			t.out.String("...").Faint(), t.out.String(fmt.Sprint(truncated)).Bold(), plural)
	}
	return b.String()
}

func (t *Tracker) colored(s, color string) string {
	return t.out.String(s).Foreground(t.out.Color(color)).String()
}

func availableLines(height int) int {
	if height > headerLines+truncationReserve+2 {
		return height - headerLines - truncationReserve
	}
	return max(0, height-headerLines)
}

// Handle updates the status of a single linter.
type Handle struct {
	code    string
	tracker *Tracker
}

// Update records a new status for the linter.
func (h *Handle) Update(message string, completed, success bool) {
	if h == nil || h.tracker == nil {
		return
	}
	h.tracker.update(h.code, message, completed, success)
}
