// Package store records lintrunner invocations so they can be reported
// later, and remembers the config hash each linter init ran against.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/VoxDroid/lintrunner/internal/db"
)

// MaxRuns is the number of past runs kept.
const MaxRuns = 10

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded lintrunner invocation.
type Run struct {
	ID         string
	Timestamp  time.Time
	Args       []string
	ConfigPath string
	// ExitCode is nil until the run finishes.
	ExitCode *int
	Duration time.Duration
	Log      string
}

// Succeeded reports whether the run finished with exit code 0.
func (r Run) Succeeded() bool { return r.ExitCode != nil && *r.ExitCode == 0 }

// Store is the run history repository.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the store at the configured database path.
func Open() (*Store, error) {
	d, err := db.InitDB()
	if err != nil {
		return nil, err
	}
	return New(d), nil
}

// New returns a Store using d. The schema must already be applied.
func New(d *sql.DB) *Store {
	return &Store{db: d, now: time.Now}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun records the start of an invocation and prunes history beyond
// MaxRuns.
func (s *Store) BeginRun(args []string, configPath string) (*Run, error) {
	run := &Run{
		ID:         uuid.NewString(),
		Timestamp:  s.now().UTC(),
		Args:       append([]string(nil), args...),
		ConfigPath: configPath,
	}
	encoded, err := json.Marshal(run.Args)
	if err != nil {
		return nil, err
	}
	trx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = trx.Rollback() }()

	if _, err := trx.Exec("INSERT INTO runs (id, started_at, args, config_path) VALUES (?, ?, ?, ?)",
		run.ID, run.Timestamp.Format(timeLayout), string(encoded), configPath); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	if _, err := trx.Exec(`DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?)`, MaxRuns); err != nil {
		return nil, fmt.Errorf("prune runs: %w", err)
	}
	if err := trx.Commit(); err != nil {
		return nil, err
	}
	return run, nil
}

// FinishRun stores the exit code and captured log of run.
func (s *Store) FinishRun(run *Run, exitCode int, log string) error {
	finished := s.now().UTC()
	run.ExitCode = &exitCode
	run.Duration = finished.Sub(run.Timestamp)
	run.Log = log
	res, err := s.db.Exec("UPDATE runs SET finished_at = ?, exit_code = ?, duration_ms = ?, log = ? WHERE id = ?",
		finished.Format(timeLayout), exitCode, run.Duration.Milliseconds(), log, run.ID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: run %s not found", run.ID)
	}
	return nil
}

// PastRuns returns finished runs, newest first.
func (s *Store) PastRuns() ([]Run, error) {
	rows, err := s.db.Query(`SELECT id, started_at, args, COALESCE(config_path, ''), exit_code, COALESCE(duration_ms, 0), COALESCE(log, '')
		FROM runs WHERE exit_code IS NOT NULL ORDER BY started_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var (
			r        Run
			started  string
			args     string
			exitCode sql.NullInt64
			ms       int64
		)
		if err := rows.Scan(&r.ID, &started, &args, &r.ConfigPath, &exitCode, &ms, &r.Log); err != nil {
			return nil, err
		}
		if r.Timestamp, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("run %s: bad timestamp %q: %w", r.ID, started, err)
		}
		if err := json.Unmarshal([]byte(args), &r.Args); err != nil {
			return nil, fmt.Errorf("run %s: bad args: %w", r.ID, err)
		}
		if exitCode.Valid {
			code := int(exitCode.Int64)
			r.ExitCode = &code
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// PastRun returns the i-th most recent finished run, counting from 0.
func (s *Store) PastRun(i int) (Run, error) {
	runs, err := s.PastRuns()
	if err != nil {
		return Run{}, err
	}
	if i < 0 || i >= len(runs) {
		return Run{}, fmt.Errorf("invocation %d not found: %d past run(s) recorded", i, len(runs))
	}
	return runs[i], nil
}

type reportHeader struct {
	ID        string   `yaml:"id"`
	Timestamp string   `yaml:"timestamp"`
	Args      []string `yaml:"args"`
	Config    string   `yaml:"config,omitempty"`
	ExitCode  int      `yaml:"exit_code"`
	Duration  string   `yaml:"duration"`
}

// RunReport renders run as a markdown report with a YAML header followed
// by the captured log.
func RunReport(run Run) (string, error) {
	h := reportHeader{
		ID:        run.ID,
		Timestamp: run.Timestamp.Format(time.RFC3339),
		Args:      run.Args,
		Config:    run.ConfigPath,
		Duration:  run.Duration.Round(time.Millisecond).String(),
	}
	if run.ExitCode != nil {
		h.ExitCode = *run.ExitCode
	}
	header, err := yaml.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("encode report header: %w", err)
	}
	var b strings.Builder
	b.WriteString("# lintrunner rage report\n\n```yaml\n")
	b.Write(header)
	b.WriteString("```\n\n## Log\n\n```\n")
	b.WriteString(strings.TrimRight(run.Log, "\n"))
	b.WriteString("\n```\n")
	return b.String(), nil
}

// InitHash returns the config hash recorded by the last init for
// configPath.
func (s *Store) InitHash(configPath string) (string, bool, error) {
	var hash string
	err := s.db.QueryRow("SELECT hash FROM init_hashes WHERE config_path = ?", configPath).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return hash, true, nil
}

// SetInitHash records hash as the config hash init last ran against.
func (s *Store) SetInitHash(configPath, hash string) error {
	_, err := s.db.Exec(`INSERT INTO init_hashes (config_path, hash, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(config_path) DO UPDATE SET hash = excluded.hash, updated_at = excluded.updated_at`,
		configPath, hash, s.now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record init hash: %w", err)
	}
	return nil
}
