// Package lintmsg defines the lint message wire format exchanged between
// lintrunner and the linters it invokes.
package lintmsg

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity classifies a lint message.
type Severity string

// Known severities. Disabled messages are shown but never fail a run.
const (
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
	SeverityAdvice   Severity = "advice"
	SeverityDisabled Severity = "disabled"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityAdvice, SeverityDisabled:
		return true
	}
	return false
}

// Label returns the capitalized severity used in human-readable output.
func (s Severity) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// LintMessage is a single finding reported by a linter. A linter prints one
// JSON-encoded LintMessage per line of stdout.
type LintMessage struct {
	Path        *string  `json:"path"`
	Line        *int     `json:"line"`
	Char        *int     `json:"char"`
	Code        string   `json:"code"`
	Severity    Severity `json:"severity"`
	Name        string   `json:"name"`
	Original    *string  `json:"original"`
	Replacement *string  `json:"replacement"`
	Description *string  `json:"description"`
}

// ParseLine decodes a single line of linter output.
func ParseLine(line string) (LintMessage, error) {
	var m LintMessage
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		return LintMessage{}, fmt.Errorf("invalid lint message %q: %w", line, err)
	}
	if !m.Severity.Valid() {
		return LintMessage{}, fmt.Errorf("invalid lint message %q: unknown severity %q", line, m.Severity)
	}
	return m, nil
}

// RuleID returns "<code>/<name>".
func (m LintMessage) RuleID() string {
	return m.Code + "/" + m.Name
}

// HasReplacement reports whether the message carries a suggested fix.
func (m LintMessage) HasReplacement() bool {
	return m.Path != nil && m.Original != nil && m.Replacement != nil
}

// PathOr returns the message path or def when unset.
func (m LintMessage) PathOr(def string) string {
	if m.Path == nil {
		return def
	}
	return *m.Path
}

// DescriptionText returns the description or the empty string.
func (m LintMessage) DescriptionText() string {
	if m.Description == nil {
		return ""
	}
	return *m.Description
}

// String returns a pointer to s, for building messages.
func String(s string) *string { return &s }

// Int returns a pointer to i, for building messages.
func Int(i int) *int { return &i }
