// Package sarif converts lintrunner JSON output into a SARIF 2.1.0 log that
// code scanning services accept.
package sarif

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/VoxDroid/lintrunner/internal/lintmsg"
)

// Fixed fields of every log this package writes.
const (
	SchemaURI = "https://json.schemastore.org/sarif-2.1.0.json"
	Version   = "2.1.0"
	ToolName  = "lintrunner"
)

// Log is the top-level SARIF document.
type Log struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

// Run holds the results of one tool invocation.
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool describes the analysis tool that produced a Run.
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver names the tool and lists the rules its results refer to.
type Driver struct {
	Name  string `json:"name"`
	Rules []Rule `json:"rules"`
}

// Rule is one reporting rule, identified as CODE/name.
type Rule struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	ShortDescription     Message       `json:"shortDescription"`
	FullDescription      Message       `json:"fullDescription"`
	DefaultConfiguration Configuration `json:"defaultConfiguration"`
}

// Configuration is a rule's default severity level.
type Configuration struct {
	Level string `json:"level"`
}

// Message is plain text shown for a rule or result.
type Message struct {
	Text string `json:"text"`
}

// Result is one reported problem.
type Result struct {
	RuleID    string     `json:"ruleId"`
	Level     string     `json:"level"`
	Message   Message    `json:"message"`
	Locations []Location `json:"locations"`
}

// Location points a Result at a place in a file.
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation is a file and a region within it.
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

// ArtifactLocation is a file:// URI for the linted path.
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region is a 1-based line and column.
type Region struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
}

// Level maps a lint severity to a SARIF level. Code scanning has no notion
// of advice, so advice and disabled messages are reported as warnings.
func Level(s lintmsg.Severity) string {
	switch s {
	case lintmsg.SeverityAdvice, lintmsg.SeverityDisabled:
		return "warning"
	}
	return string(s)
}

// Convert reads JSON lines of lint messages from r and builds a SARIF log.
// Rules are listed once per rule id in order of first appearance.
func Convert(r io.Reader) (*Log, error) {
	var (
		results []Result
		rules   []Rule
		seen    = map[string]int{}
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		m, err := lintmsg.ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		res, rule := convertOne(m)
		results = append(results, res)
		if i, ok := seen[rule.ID]; ok {
			rules[i] = rule
		} else {
			seen[rule.ID] = len(rules)
			rules = append(rules, rule)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lint messages: %w", err)
	}
	if results == nil {
		results = []Result{}
	}
	if rules == nil {
		rules = []Rule{}
	}
	return &Log{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{{
			Tool:    Tool{Driver: Driver{Name: ToolName, Rules: rules}},
			Results: results,
		}},
	}, nil
}

func convertOne(m lintmsg.LintMessage) (Result, Rule) {
	id := m.RuleID()
	desc := m.DescriptionText()
	level := Level(m.Severity)
	full := id + "\n" + desc

	res := Result{
		RuleID:  id,
		Level:   level,
		Message: Message{Text: full},
		Locations: []Location{{
			PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: "file://" + m.PathOr("")},
				Region: Region{
					StartLine:   orOne(m.Line),
					StartColumn: orOne(m.Char),
				},
			},
		}},
	}
	firstLine, _, _ := strings.Cut(desc, "\n")
	rule := Rule{
		ID:                   id,
		Name:                 id,
		ShortDescription:     Message{Text: id + ": " + firstLine},
		FullDescription:      Message{Text: full},
		DefaultConfiguration: Configuration{Level: level},
	}
	return res, rule
}

func orOne(p *int) int {
	if p == nil || *p == 0 {
		return 1
	}
	return *p
}

// ConvertFile converts the JSON lines file at input and writes the SARIF log
// to output, creating output's directory when needed.
func ConvertFile(input, output string) error {
	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open %s: %w", input, err)
	}
	defer func() { _ = in.Close() }()

	log, err := Convert(in)
	if err != nil {
		return fmt.Errorf("convert %s: %w", input, err)
	}
	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	data, err := json.Marshal(log)
	if err != nil {
		return err
	}
	return os.WriteFile(output, data, 0o644)
}
