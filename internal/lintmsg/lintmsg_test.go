package lintmsg

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	line := `{"path":"/adapters/grep_linter.py","line":227,"char":80,"code":"FLAKE8","severity":"advice","name":"E501","description":"line too long"}`
	m, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if m.PathOr("") != "/adapters/grep_linter.py" || *m.Line != 227 || *m.Char != 80 {
		t.Fatalf("unexpected location: %+v", m)
	}
	if m.RuleID() != "FLAKE8/E501" {
		t.Fatalf("unexpected rule id %s", m.RuleID())
	}
	if m.HasReplacement() {
		t.Fatalf("message without original/replacement reported a replacement")
	}
}

func TestParseLineNullFields(t *testing.T) {
	m, err := ParseLine(`{"path":null,"line":null,"char":null,"code":"X","severity":"error","name":"n","original":null,"replacement":null,"description":null}`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if m.Path != nil || m.Line != nil || m.Description != nil {
		t.Fatalf("expected nil fields: %+v", m)
	}
	if m.PathOr("<none>") != "<none>" || m.DescriptionText() != "" {
		t.Fatalf("unexpected defaults")
	}
}

func TestParseLineRejectsGarbage(t *testing.T) {
	if _, err := ParseLine("not json"); err == nil {
		t.Fatalf("expected error for non-JSON line")
	}
	_, err := ParseLine(`{"code":"X","name":"n","severity":"fatal"}`)
	if err == nil || !strings.Contains(err.Error(), "unknown severity") {
		t.Fatalf("expected severity error, got %v", err)
	}
}

func TestEncodeUsesWireNames(t *testing.T) {
	m := LintMessage{Path: String("a.py"), Line: Int(3), Code: "DUMMY", Name: "dummy failure", Severity: SeverityAdvice}
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{`"path":"a.py"`, `"line":3`, `"severity":"advice"`, `"name":"dummy failure"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected %s in %s", want, s)
		}
	}
}

func TestSeverityLabel(t *testing.T) {
	if SeverityAdvice.Label() != "Advice" || SeverityError.Label() != "Error" {
		t.Fatalf("unexpected labels")
	}
}
