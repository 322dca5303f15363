package ci

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// findWorkflow walks up from the package dir to the repository root.
func findWorkflow(t *testing.T) string {
	t.Helper()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	for {
		candidate := filepath.Join(cwd, ".github", "workflows", "lint.yml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}
	t.Fatalf(".github/workflows/lint.yml not found in repository tree")
	return ""
}

func TestCommittedWorkflowIsValid(t *testing.T) {
	w, err := Load(findWorkflow(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := Validate(w); err != nil {
		t.Fatalf("committed workflow is invalid: %v", err)
	}
	job, err := LintJob(w)
	if err != nil {
		t.Fatalf("LintJob: %v", err)
	}
	oses := w.Jobs[job].Strategy.Matrix.OS
	if strings.Join(oses, ",") != "ubuntu-latest,macos-latest" {
		t.Fatalf("unexpected OS matrix: %v", oses)
	}
	if _, ok := w.Jobs[job].Strategy.Matrix.Extra["python-version"]; !ok {
		t.Fatalf("expected a pinned python-version in the matrix")
	}
}

func TestValidateReportsMissingPieces(t *testing.T) {
	w, err := Parse([]byte(`
name: Lint
on:
  push:
    branches: [develop]
jobs:
  lint:
    runs-on: ${{ matrix.os }}
    strategy:
      matrix:
        os: [ubuntu-latest]
    steps:
      - run: lintrunner --all-files --tee-json=lint.json
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	err = Validate(w)
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{
		"does not cover branch main",
		"does not cover v* tags",
		"missing pull_request trigger",
		"missing concurrency group",
		"an OS matrix with at least two entries",
		"a `lintrunner sarif` step",
		"a SARIF upload step",
		"no job runs go vet",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in %v", want, err)
		}
	}
}

func TestLintJobRequiresLintrunnerStep(t *testing.T) {
	w, err := Parse([]byte("on:\n  pull_request:\njobs:\n  build:\n    runs-on: ubuntu-latest\n    steps:\n      - run: go build ./...\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := w.On["pull_request"]; !ok {
		t.Fatalf("bare pull_request trigger not decoded: %#v", w.On)
	}
	if _, err := LintJob(w); err == nil || !strings.Contains(err.Error(), "no job runs lintrunner") {
		t.Fatalf("expected missing-job error, got %v", err)
	}
}

func TestParseRejectsEmpty(t *testing.T) {
	if _, err := Parse([]byte("  \n")); err == nil {
		t.Fatalf("expected error for empty workflow")
	}
}
