package rage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/VoxDroid/lintrunner/internal/store"
)

type fakeHistory struct{ runs []store.Run }

func (f *fakeHistory) PastRuns() ([]store.Run, error) { return f.runs, nil }

func (f *fakeHistory) PastRun(i int) (store.Run, error) {
	if i < 0 || i >= len(f.runs) {
		return store.Run{}, fmt.Errorf("invocation %d not found", i)
	}
	return f.runs[i], nil
}

type uploadRunner struct {
	argv  []string
	stdin string
}

func (u *uploadRunner) Execute(context.Context, string, string, io.Reader, io.Writer, io.Writer) error {
	return fmt.Errorf("unexpected shell command")
}

func (u *uploadRunner) ExecuteArgs(_ context.Context, argv []string, _ string, stdin io.Reader, stdout, _ io.Writer) error {
	u.argv = argv
	data, _ := io.ReadAll(stdin)
	u.stdin = string(data)
	_, _ = io.WriteString(stdout, "https://gist.example.com/1\n")
	return nil
}

func sampleRuns() []store.Run {
	zero, one := 0, 1
	return []store.Run{
		{ID: "newest", Timestamp: time.Now().Add(-2 * time.Minute), Args: []string{"lintrunner", "--all-files"}, ExitCode: &one, Log: "found lint"},
		{ID: "older", Timestamp: time.Now().Add(-time.Hour), Args: []string{"lintrunner"}, ExitCode: &zero, Log: "clean"},
	}
}

func intPtr(i int) *int { return &i }

func TestPrintsSelectedInvocation(t *testing.T) {
	var out bytes.Buffer
	r := &Rage{History: &fakeHistory{runs: sampleRuns()}, Stdout: &out, Stderr: io.Discard}
	if err := r.Do(context.Background(), Options{Invocation: intPtr(1)}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !strings.Contains(out.String(), "id: older") || !strings.Contains(out.String(), "clean") {
		t.Fatalf("expected report for older run, got:\n%s", out.String())
	}
}

func TestInvocationOutOfRange(t *testing.T) {
	r := &Rage{History: &fakeHistory{runs: sampleRuns()}, Stdout: io.Discard}
	if err := r.Do(context.Background(), Options{Invocation: intPtr(7)}); err == nil {
		t.Fatalf("expected error for missing invocation")
	}
}

func TestPickerDismissed(t *testing.T) {
	var out bytes.Buffer
	r := &Rage{
		History: &fakeHistory{runs: sampleRuns()},
		Pick:    func([]store.Run) (*store.Run, error) { return nil, nil },
		Stdout:  &out,
	}
	if err := r.Do(context.Background(), Options{}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if strings.TrimSpace(out.String()) != NothingSelected {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestNoHistoryMeansNothingSelected(t *testing.T) {
	var out bytes.Buffer
	r := &Rage{History: &fakeHistory{}, Stdout: &out}
	if err := r.Do(context.Background(), Options{}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if strings.TrimSpace(out.String()) != NothingSelected {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestUploadToGist(t *testing.T) {
	runner := &uploadRunner{}
	var out bytes.Buffer
	r := &Rage{
		History: &fakeHistory{runs: sampleRuns()},
		Runner:  runner,
		Pick:    func(runs []store.Run) (*store.Run, error) { return &runs[0], nil },
		Stdout:  &out,
		Stderr:  io.Discard,
	}
	if err := r.Do(context.Background(), Options{Gist: true}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if strings.Join(runner.argv, " ") != "gh gist create -" {
		t.Fatalf("unexpected upload command %v", runner.argv)
	}
	if !strings.Contains(runner.stdin, "id: newest") {
		t.Fatalf("expected report piped to stdin, got %q", runner.stdin)
	}
	if !strings.Contains(out.String(), "gist.example.com") {
		t.Fatalf("expected uploader output forwarded, got %q", out.String())
	}
}

func TestUploadToPastry(t *testing.T) {
	runner := &uploadRunner{}
	r := &Rage{History: &fakeHistory{runs: sampleRuns()}, Runner: runner, Stdout: io.Discard, Stderr: io.Discard}
	if err := r.Do(context.Background(), Options{Invocation: intPtr(0), Pastry: true}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if strings.Join(runner.argv, " ") != "pastry" {
		t.Fatalf("unexpected upload command %v", runner.argv)
	}
}

func TestGistAndPastryConflict(t *testing.T) {
	r := &Rage{History: &fakeHistory{runs: sampleRuns()}, Stdout: io.Discard}
	if err := r.Do(context.Background(), Options{Gist: true, Pastry: true}); err == nil {
		t.Fatalf("expected conflict error")
	}
}
