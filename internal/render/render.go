// Package render prints lint messages in the supported output formats.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/term"

	"github.com/VoxDroid/lintrunner/internal/lintmsg"
)

// Format selects how messages are printed.
type Format string

// Output formats accepted by --output.
const (
	// FormatDefault prints grouped, styled blocks with code snippets or diffs.
	FormatDefault Format = "default"
	// FormatJSON prints one JSON message per line.
	FormatJSON Format = "json"
	// FormatOneline prints one path:line:char summary per message.
	FormatOneline Format = "oneline"
)

// snippetContext is the number of lines shown around the offending line.
const snippetContext = 3

// ParseFormat validates a --output value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatDefault, FormatJSON, FormatOneline:
		return Format(s), nil
	case "":
		return FormatDefault, nil
	}
	return "", fmt.Errorf("unknown output format %q (want default, json or oneline)", s)
}

// ShouldColor reports whether styled output should be written to f.
func ShouldColor(force bool, f *os.File) bool {
	if force {
		return true
	}
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Printer writes lint messages to w.
type Printer struct {
	w      io.Writer
	format Format
	color  bool
	cwd    string

	header   lipgloss.Style
	errStyle lipgloss.Style
	warn     lipgloss.Style
	advice   lipgloss.Style
	dim      lipgloss.Style
	marker   lipgloss.Style
	added    lipgloss.Style
	removed  lipgloss.Style
	ok       lipgloss.Style
}

// New returns a Printer. Paths are shown relative to the working directory
// when they live under it.
func New(w io.Writer, format Format, color bool) *Printer {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	if format == "" {
		format = FormatDefault
	}
	cwd, _ := os.Getwd()
	return &Printer{
		w:        w,
		format:   format,
		color:    color,
		cwd:      cwd,
		header:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#0ea5a4")),
		errStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#ef4444")),
		warn:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("#f59e0b")),
		advice:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#3b82f6")),
		dim:      r.NewStyle().Foreground(lipgloss.Color("#94a3b8")),
		marker:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#ef4444")),
		added:    r.NewStyle().Foreground(lipgloss.Color("#22c55e")),
		removed:  r.NewStyle().Foreground(lipgloss.Color("#ef4444")),
		ok:       r.NewStyle().Bold(true).Foreground(lipgloss.Color("#22c55e")),
	}
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// Render prints msgs in the configured format. msgs is expected grouped by
// linter; the default format regroups them by file.
func (p *Printer) Render(msgs []lintmsg.LintMessage) error {
	switch p.format {
	case FormatJSON:
		return p.renderJSON(msgs)
	case FormatOneline:
		return p.renderOneline(msgs)
	default:
		return p.renderDefault(msgs)
	}
}

func (p *Printer) renderJSON(msgs []lintmsg.LintMessage) error {
	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)
	for _, m := range msgs {
		if err := enc.Encode(m); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) renderOneline(msgs []lintmsg.LintMessage) error {
	for _, m := range msgs {
		if _, err := fmt.Fprintln(p.w, Oneline(p.displayPath(m.PathOr("")), m)); err != nil {
			return err
		}
	}
	return nil
}

// Oneline formats m as
// "<path>:<line>:<char> <SEVERITY> [<CODE>/<name>] <first description line>".
func Oneline(path string, m lintmsg.LintMessage) string {
	first, _, _ := strings.Cut(m.DescriptionText(), "\n")
	return fmt.Sprintf("%s:%s:%s %s [%s] %s",
		path, intOrEmpty(m.Line), intOrEmpty(m.Char),
		strings.ToUpper(string(m.Severity)), m.RuleID(), first)
}

func intOrEmpty(p *int) string {
	if p == nil {
		return ""
	}
	return fmt.Sprint(*p)
}

func (p *Printer) renderDefault(msgs []lintmsg.LintMessage) error {
	if len(msgs) == 0 {
		_, err := fmt.Fprintf(p.w, "%s No lint issues.\n", p.style(p.ok, "ok"))
		return err
	}

	var order []string
	byPath := map[string][]lintmsg.LintMessage{}
	for _, m := range msgs {
		key := m.PathOr("")
		if _, ok := byPath[key]; !ok {
			order = append(order, key)
		}
		byPath[key] = append(byPath[key], m)
	}
	// Messages without a path are general linter failures and go first.
	if general, ok := byPath[""]; ok {
		p.printf("\n%s\n", p.style(p.header, ">>> General linter failure:"))
		for _, m := range general {
			p.printMessage(m, nil)
		}
	}
	for _, path := range order {
		if path == "" {
			continue
		}
		p.printf("\n%s\n", p.style(p.header, fmt.Sprintf(">>> Lint for %s:", p.displayPath(path))))
		lines, err := readLines(path)
		if err != nil {
			lines = nil
		}
		for _, m := range byPath[path] {
			p.printMessage(m, lines)
		}
	}
	return nil
}

func (p *Printer) printMessage(m lintmsg.LintMessage, lines []string) {
	p.printf("\n  %s %s\n", p.severity(m.Severity), fmt.Sprintf("(%s) %s", m.Code, m.Name))
	if desc := m.DescriptionText(); desc != "" {
		for _, l := range strings.Split(desc, "\n") {
			p.printf("    %s\n", l)
		}
	}
	if m.HasReplacement() {
		p.printf("\n    %s\n\n", p.style(p.dim, "You can run `lintrunner -a` to apply this patch."))
		p.printDiff(*m.Original, *m.Replacement)
		return
	}
	if m.Line != nil && lines != nil {
		p.printSnippet(lines, *m.Line)
	}
}

func (p *Printer) severity(s lintmsg.Severity) string {
	label := s.Label()
	switch s {
	case lintmsg.SeverityError:
		return p.style(p.errStyle, label)
	case lintmsg.SeverityWarning:
		return p.style(p.warn, label)
	case lintmsg.SeverityAdvice:
		return p.style(p.advice, label)
	}
	return p.style(p.dim, label)
}

func (p *Printer) printSnippet(lines []string, line int) {
	if line < 1 || line > len(lines) {
		return
	}
	start := max(1, line-snippetContext)
	end := min(len(lines), line+snippetContext)
	width := len(fmt.Sprint(end))
	p.printf("\n")
	for n := start; n <= end; n++ {
		num := fmt.Sprintf("%*d", width, n)
		if n == line {
			p.printf("    %s %s  |%s\n", p.style(p.marker, ">>>"), p.style(p.marker, num), lines[n-1])
		} else {
			p.printf("        %s  |%s\n", p.style(p.dim, num), lines[n-1])
		}
	}
}

func (p *Printer) printDiff(original, replacement string) {
	diff, err := UnifiedDiff(original, replacement)
	if err != nil {
		p.printf("    %s\n", p.style(p.dim, "(diff unavailable: "+err.Error()+")"))
		return
	}
	for _, l := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"):
			p.printf("    %s\n", p.style(p.dim, l))
		case strings.HasPrefix(l, "+"):
			p.printf("    %s\n", p.style(p.added, l))
		case strings.HasPrefix(l, "-"):
			p.printf("    %s\n", p.style(p.removed, l))
		default:
			p.printf("    %s\n", l)
		}
	}
}

// UnifiedDiff returns a unified diff with three lines of context.
func UnifiedDiff(original, replacement string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(replacement),
		FromFile: "original",
		ToFile:   "replacement",
		Context:  snippetContext,
	})
}

// PatchesApplied prints the closing line for a run that applied patches.
func (p *Printer) PatchesApplied(n int) {
	if p.format != FormatDefault || n == 0 {
		return
	}
	p.printf("\n%s Applied %d patch(es).\n", p.style(p.ok, "ok"), n)
}

func (p *Printer) displayPath(path string) string {
	if path == "" || p.cwd == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(p.cwd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func (p *Printer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format, args...)
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n"), nil
}
