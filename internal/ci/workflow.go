// Package ci loads the GitHub Actions lint workflow and checks that it still
// has the shape lintrunner's CI depends on.
package ci

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Trigger is one entry under `on:`. A bare key such as `pull_request:`
// decodes to a nil *Trigger.
type Trigger struct {
	Branches []string `yaml:"branches"`
	Tags     []string `yaml:"tags"`
}

// Concurrency groups runs so a newer push cancels the one in flight.
type Concurrency struct {
	Group            string `yaml:"group"`
	CancelInProgress bool   `yaml:"cancel-in-progress"`
}

// Matrix is a job's build matrix. Keys other than os are kept in Extra.
type Matrix struct {
	OS    []string       `yaml:"os"`
	Extra map[string]any `yaml:",inline"`
}

// Strategy holds a job's matrix.
type Strategy struct {
	FailFast *bool  `yaml:"fail-fast"`
	Matrix   Matrix `yaml:"matrix"`
}

// Step is one step of a job. Either Uses or Run is set.
type Step struct {
	Name string         `yaml:"name"`
	Uses string         `yaml:"uses"`
	Run  string         `yaml:"run"`
	If   string         `yaml:"if"`
	With map[string]any `yaml:"with"`
}

// Job is one entry under `jobs:`.
type Job struct {
	Name     string    `yaml:"name"`
	RunsOn   string    `yaml:"runs-on"`
	Strategy *Strategy `yaml:"strategy"`
	Steps    []Step    `yaml:"steps"`
}

// Workflow is the subset of a workflow file lintrunner cares about.
type Workflow struct {
	Name        string              `yaml:"name"`
	On          map[string]*Trigger `yaml:"on"`
	Concurrency *Concurrency        `yaml:"concurrency"`
	Jobs        map[string]Job      `yaml:"jobs"`
}

// Parse decodes a workflow document.
func Parse(data []byte) (*Workflow, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("ci: workflow is empty")
	}
	var w Workflow
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("ci: decode workflow: %w", err)
	}
	return &w, nil
}

// Load reads and decodes the workflow at path.
func Load(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ci: read %s: %w", path, err)
	}
	w, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// Validate reports every way w deviates from the expected lint workflow.
func Validate(w *Workflow) error {
	var errs []error

	push, ok := w.On["push"]
	switch {
	case !ok || push == nil:
		errs = append(errs, errors.New("missing push trigger"))
	default:
		if !slices.Contains(push.Branches, "main") {
			errs = append(errs, errors.New("push trigger does not cover branch main"))
		}
		if !slices.Contains(push.Tags, "v*") {
			errs = append(errs, errors.New("push trigger does not cover v* tags"))
		}
	}
	if _, ok := w.On["pull_request"]; !ok {
		errs = append(errs, errors.New("missing pull_request trigger"))
	}

	if w.Concurrency == nil || strings.TrimSpace(w.Concurrency.Group) == "" {
		errs = append(errs, errors.New("missing concurrency group"))
	} else if !w.Concurrency.CancelInProgress {
		errs = append(errs, errors.New("concurrency does not cancel superseded runs"))
	}

	if _, err := LintJob(w); err != nil {
		errs = append(errs, err)
	}
	vet := false
	for _, j := range w.Jobs {
		if j.hasStep(func(s Step) bool { return strings.Contains(s.Run, "go vet") }) {
			vet = true
		}
	}
	if !vet {
		errs = append(errs, errors.New("no job runs go vet"))
	}
	return errors.Join(errs...)
}

// LintJob returns the name of the job that runs lintrunner across an OS
// matrix and uploads its SARIF report.
func LintJob(w *Workflow) (string, error) {
	names := make([]string, 0, len(w.Jobs))
	for name := range w.Jobs {
		names = append(names, name)
	}
	slices.Sort(names)

	var problems []string
	for _, name := range names {
		job := w.Jobs[name]
		if !job.runsLintrunner() {
			continue
		}
		var missing []string
		if job.Strategy == nil || len(job.Strategy.Matrix.OS) < 2 {
			missing = append(missing, "an OS matrix with at least two entries")
		}
		if !job.hasStep(func(s Step) bool { return strings.Contains(s.Run, "lintrunner sarif") }) {
			missing = append(missing, "a `lintrunner sarif` step")
		}
		if !job.hasStep(func(s Step) bool { return strings.HasPrefix(s.Uses, "github/codeql-action/upload-sarif") }) {
			missing = append(missing, "a SARIF upload step")
		}
		if len(missing) == 0 {
			return name, nil
		}
		problems = append(problems, fmt.Sprintf("job %s lacks %s", name, strings.Join(missing, ", ")))
	}
	if len(problems) == 0 {
		return "", errors.New("no job runs lintrunner --all-files --tee-json")
	}
	return "", errors.New(strings.Join(problems, "; "))
}

func (j Job) runsLintrunner() bool {
	return j.hasStep(func(s Step) bool {
		return strings.Contains(s.Run, "lintrunner") &&
			strings.Contains(s.Run, "--all-files") &&
			strings.Contains(s.Run, "--tee-json")
	})
}

func (j Job) hasStep(pred func(Step) bool) bool {
	return slices.ContainsFunc(j.Steps, pred)
}
