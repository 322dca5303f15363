package linter

import (
	"strings"
	"testing"
)

func codesOf(ls []*Linter) string {
	var c []string
	for _, l := range ls {
		c = append(c, l.Code)
	}
	return strings.Join(c, ",")
}

func sampleLinters() []*Linter {
	return []*Linter{{Code: "FLAKE8"}, {Code: "MYPY"}, {Code: "CLANGFORMAT"}, {Code: "NEWLINE"}}
}

func TestSelectAll(t *testing.T) {
	got, err := Select(sampleLinters(), nil, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if codesOf(got) != "FLAKE8,MYPY,CLANGFORMAT,NEWLINE" {
		t.Fatalf("unexpected selection %s", codesOf(got))
	}
}

func TestSelectTakeThenSkip(t *testing.T) {
	got, err := Select(sampleLinters(), []string{"MYPY"}, []string{"MYPY", "NEWLINE"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if codesOf(got) != "NEWLINE" {
		t.Fatalf("expected take then skip to leave NEWLINE, got %s", codesOf(got))
	}
}

func TestSelectUnknownTake(t *testing.T) {
	_, err := Select(sampleLinters(), nil, []string{"MYPI"})
	if err == nil {
		t.Fatalf("expected error for unknown linter")
	}
	msg := err.Error()
	if !strings.Contains(msg, "Unknown linter specified in --take: MYPI") {
		t.Fatalf("unexpected error %q", msg)
	}
	if !strings.Contains(msg, "[CLANGFORMAT, FLAKE8, MYPY, NEWLINE]") {
		t.Fatalf("expected sorted list of available linters, got %q", msg)
	}
}

func TestSelectUnknownSkipSuggests(t *testing.T) {
	_, err := Select(sampleLinters(), []string{"flake"}, nil)
	if err == nil {
		t.Fatalf("expected error for unknown linter")
	}
	if !strings.Contains(err.Error(), "--skip: flake") || !strings.Contains(err.Error(), "Did you mean FLAKE8?") {
		t.Fatalf("expected suggestion, got %q", err.Error())
	}
}

func TestSelectNoSuggestionForUnrelatedCode(t *testing.T) {
	_, err := Select(sampleLinters(), []string{"ZZZ"}, nil)
	if err == nil || strings.Contains(err.Error(), "Did you mean") {
		t.Fatalf("expected error without suggestion, got %v", err)
	}
}
