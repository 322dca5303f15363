package store

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/VoxDroid/lintrunner/internal/config"
	"github.com/VoxDroid/lintrunner/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "lintrunner.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	s := New(d)
	t.Cleanup(func() { _ = s.Close() })
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func TestOpenUsesConfiguredPath(t *testing.T) {
	t.Setenv(config.EnvDB, filepath.Join(t.TempDir(), "nested", "runs.db"))
	s, err := Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = s.Close()
}

func TestRecordAndListRuns(t *testing.T) {
	s := newTestStore(t)
	first, err := s.BeginRun([]string{"lintrunner", "--all-files"}, "/repo/.lintrunner.toml")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := s.FinishRun(first, 0, "ok No lint issues.\n"); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	second, err := s.BeginRun([]string{"lintrunner", "a b.py"}, "/repo/.lintrunner.toml")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	// unfinished runs are not listed
	if _, err := s.BeginRun([]string{"lintrunner"}, ""); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := s.FinishRun(second, 1, "lint found\n"); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := s.PastRuns()
	if err != nil {
		t.Fatalf("PastRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 finished runs, got %d", len(runs))
	}
	if runs[0].ID != second.ID || runs[1].ID != first.ID {
		t.Fatalf("expected newest first, got %s then %s", runs[0].ID, runs[1].ID)
	}
	if runs[0].Args[1] != "a b.py" || runs[0].Succeeded() || !runs[1].Succeeded() {
		t.Fatalf("unexpected run contents %+v", runs[0])
	}
	if runs[1].Duration != time.Second {
		t.Fatalf("expected one second duration, got %v", runs[1].Duration)
	}

	got, err := s.PastRun(1)
	if err != nil || got.ID != first.ID {
		t.Fatalf("PastRun(1) = %v, %v", got.ID, err)
	}
	if _, err := s.PastRun(5); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestKeepsOnlyNewestRuns(t *testing.T) {
	s := newTestStore(t)
	var ids []string
	for i := 0; i < MaxRuns+3; i++ {
		r, err := s.BeginRun([]string{"lintrunner", string(rune('a' + i))}, "")
		if err != nil {
			t.Fatalf("BeginRun: %v", err)
		}
		if err := s.FinishRun(r, 0, ""); err != nil {
			t.Fatalf("FinishRun: %v", err)
		}
		ids = append(ids, r.ID)
	}
	runs, err := s.PastRuns()
	if err != nil {
		t.Fatalf("PastRuns: %v", err)
	}
	if len(runs) != MaxRuns {
		t.Fatalf("expected %d runs, got %d", MaxRuns, len(runs))
	}
	if runs[0].ID != ids[len(ids)-1] || runs[MaxRuns-1].ID != ids[3] {
		t.Fatalf("expected the oldest runs to be pruned")
	}
}

func TestFinishUnknownRun(t *testing.T) {
	s := newTestStore(t)
	if err := s.FinishRun(&Run{ID: "missing", Timestamp: time.Now()}, 0, ""); err == nil {
		t.Fatalf("expected error for unknown run")
	}
}

func TestRunReport(t *testing.T) {
	code := 1
	run := Run{
		ID:         "1234",
		Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Args:       []string{"lintrunner", "--take", "FLAKE8"},
		ConfigPath: "/repo/.lintrunner.toml",
		ExitCode:   &code,
		Duration:   1500 * time.Millisecond,
		Log:        "DEBUG running linter\n",
	}
	report, err := RunReport(run)
	if err != nil {
		t.Fatalf("RunReport: %v", err)
	}
	start := strings.Index(report, "```yaml\n")
	end := strings.Index(report, "```\n\n## Log")
	if start < 0 || end < 0 {
		t.Fatalf("unexpected report layout:\n%s", report)
	}
	var header reportHeader
	if err := yaml.Unmarshal([]byte(report[start+len("```yaml\n"):end]), &header); err != nil {
		t.Fatalf("header is not YAML: %v", err)
	}
	if header.ID != "1234" || header.ExitCode != 1 || header.Duration != "1.5s" || len(header.Args) != 3 {
		t.Fatalf("unexpected header %+v", header)
	}
	if !strings.HasSuffix(report, "## Log\n\n```\nDEBUG running linter\n```\n") {
		t.Fatalf("unexpected log section:\n%s", report)
	}
}

func TestInitHash(t *testing.T) {
	s := newTestStore(t)
	if _, ok, err := s.InitHash("/repo/.lintrunner.toml"); err != nil || ok {
		t.Fatalf("expected no hash, got ok=%v err=%v", ok, err)
	}
	if err := s.SetInitHash("/repo/.lintrunner.toml", "aaa"); err != nil {
		t.Fatalf("SetInitHash: %v", err)
	}
	if err := s.SetInitHash("/repo/.lintrunner.toml", "bbb"); err != nil {
		t.Fatalf("SetInitHash: %v", err)
	}
	h, ok, err := s.InitHash("/repo/.lintrunner.toml")
	if err != nil || !ok || h != "bbb" {
		t.Fatalf("expected latest hash, got %q %v %v", h, ok, err)
	}
}
