package sarif

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const flake8 = `{"path":"/adapters/pytorch/grep_linter.py","line":227,"char":80,"code":"FLAKE8","severity":"advice","name":"E501","original":null,"replacement":null,"description":"line too long (81 > 79 characters)\nSee https://www.flake8rules.com/rules/E501.html"}`

func TestConvertSingleResult(t *testing.T) {
	log, err := Convert(strings.NewReader(flake8 + "\n"))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if log.Schema != SchemaURI || log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("unexpected envelope %+v", log)
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "lintrunner" {
		t.Fatalf("unexpected driver %q", run.Tool.Driver.Name)
	}
	if len(run.Results) != 1 {
		t.Fatalf("expected one result, got %d", len(run.Results))
	}
	r := run.Results[0]
	if r.RuleID != "FLAKE8/E501" || r.Level != "warning" {
		t.Fatalf("unexpected result %+v", r)
	}
	if !strings.HasPrefix(r.Message.Text, "FLAKE8/E501\nline too long") {
		t.Fatalf("unexpected message %q", r.Message.Text)
	}
	loc := r.Locations[0].PhysicalLocation
	if loc.ArtifactLocation.URI != "file:///adapters/pytorch/grep_linter.py" || loc.Region.StartLine != 227 || loc.Region.StartColumn != 80 {
		t.Fatalf("unexpected location %+v", loc)
	}
	rule := run.Tool.Driver.Rules[0]
	if rule.ShortDescription.Text != "FLAKE8/E501: line too long (81 > 79 characters)" {
		t.Fatalf("unexpected short description %q", rule.ShortDescription.Text)
	}
	if rule.DefaultConfiguration.Level != "warning" {
		t.Fatalf("unexpected rule level %q", rule.DefaultConfiguration.Level)
	}
}

func TestConvertDefaultsAndDedup(t *testing.T) {
	input := strings.Join([]string{
		`{"path":"a.py","line":null,"char":0,"code":"MYPY","severity":"error","name":"arg-type","original":null,"replacement":null,"description":"bad"}`,
		`{"path":"b.py","line":4,"char":null,"code":"MYPY","severity":"error","name":"arg-type","original":null,"replacement":null,"description":"bad again"}`,
		`{"path":"c.py","line":1,"char":1,"code":"NOQA","severity":"disabled","name":"noqa","original":null,"replacement":null,"description":"d"}`,
	}, "\n")
	log, err := Convert(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	run := log.Runs[0]
	if len(run.Results) != 3 || len(run.Tool.Driver.Rules) != 2 {
		t.Fatalf("expected 3 results and 2 rules, got %d and %d", len(run.Results), len(run.Tool.Driver.Rules))
	}
	reg := run.Results[0].Locations[0].PhysicalLocation.Region
	if reg.StartLine != 1 || reg.StartColumn != 1 {
		t.Fatalf("expected missing positions to default to 1, got %+v", reg)
	}
	if run.Results[0].Level != "error" || run.Results[2].Level != "warning" {
		t.Fatalf("unexpected levels %q %q", run.Results[0].Level, run.Results[2].Level)
	}
}

func TestConvertRejectsGarbage(t *testing.T) {
	if _, err := Convert(strings.NewReader("not json\n")); err == nil {
		t.Fatalf("expected error for invalid input")
	}
}

func TestConvertFileCreatesOutputDir(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "lint.json")
	if err := os.WriteFile(in, []byte(flake8+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "nested", "out", "lint.sarif")
	if err := ConvertFile(in, out); err != nil {
		t.Fatalf("ConvertFile: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if doc["$schema"] != SchemaURI {
		t.Fatalf("unexpected schema %v", doc["$schema"])
	}
}

func TestConvertEmptyInput(t *testing.T) {
	log, err := Convert(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	data, _ := json.Marshal(log)
	if !strings.Contains(string(data), `"results":[]`) || !strings.Contains(string(data), `"rules":[]`) {
		t.Fatalf("expected empty arrays, got %s", data)
	}
}
