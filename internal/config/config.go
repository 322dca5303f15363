// Package config locates and loads lintrunner configuration and resolves the
// on-disk locations lintrunner uses for its own data.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// LinterConfig describes a single linter as written in .lintrunner.toml:
//
//	[[linter]]
//	code = 'NOQA'
//	include_patterns = ['**/*.py', '**/*.pyi']
//	exclude_patterns = ['caffe2/**']
//	command = ['python3', 'linters/check_noqa.py', '--', '@{{PATHSFILE}}']
//
// Patterns are relative to the directory holding the config file and
// commands run with that directory as their working directory.
type LinterConfig struct {
	Code            string   `toml:"code"`
	IncludePatterns []string `toml:"include_patterns"`
	ExcludePatterns []string `toml:"exclude_patterns"`
	// Command may contain {{PATHSFILE}}, replaced by a file listing the
	// paths to lint, one absolute path per line.
	Command []string `toml:"command"`
	// InitCommand must contain {{DRYRUN}}, replaced by 1 or 0.
	InitCommand []string `toml:"init_command"`
	IsFormatter bool     `toml:"is_formatter"`
}

// Config is the merged result of one or more config files.
type Config struct {
	Linters []LinterConfig
	// MergeBaseWith is the default for --merge-base-with, usually the
	// repository's default branch.
	MergeBaseWith string
	// OnlyLintUnderConfigDir restricts linting to the primary config's
	// directory tree. It supersedes the command line flag.
	OnlyLintUnderConfigDir bool

	// Paths lists the loaded files in load order; the first is primary.
	Paths []string

	raw [][]byte
}

type fileConfig struct {
	Linters                []LinterConfig `toml:"linter"`
	MergeBaseWith          *string        `toml:"merge_base_with"`
	OnlyLintUnderConfigDir *bool          `toml:"only_lint_under_config_dir"`
}

// Load reads and merges the given config files. Later files override scalar
// settings of earlier ones, replace linters that share a code, and append
// linters with new codes.
func Load(paths ...string) (*Config, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no config file given")
	}
	cfg := &Config{}
	sawLinters := false
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("Could not read config file at %s: %w", p, err)
		}
		var fc fileConfig
		md, err := toml.Decode(string(data), &fc)
		if err != nil {
			return nil, fmt.Errorf("Config file at %s had invalid schema: %w", p, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return nil, fmt.Errorf("Config file at %s had invalid schema: unknown field(s) %s", p, strings.Join(keys, ", "))
		}
		if md.IsDefined("linter") {
			sawLinters = true
		}
		if err := checkFile(p, fc); err != nil {
			return nil, err
		}
		cfg.merge(fc)
		abs, err := Canonical(p)
		if err != nil {
			return nil, err
		}
		cfg.Paths = append(cfg.Paths, abs)
		cfg.raw = append(cfg.raw, data)
	}
	if !sawLinters {
		return nil, fmt.Errorf("Config file had invalid schema: missing field `linter`")
	}
	return cfg, nil
}

func checkFile(path string, fc fileConfig) error {
	seen := map[string]bool{}
	for _, l := range fc.Linters {
		if strings.TrimSpace(l.Code) == "" {
			return fmt.Errorf("Config file at %s had invalid schema: linter is missing field `code`", path)
		}
		if seen[l.Code] {
			return fmt.Errorf("invalid linter configuration: linter '%s' is defined multiple times", l.Code)
		}
		seen[l.Code] = true
		if len(l.InitCommand) > 0 && !containsPlaceholder(l.InitCommand, "{{DRYRUN}}") {
			return fmt.Errorf("config for linter %s defines init args but does not take a {{DRYRUN}} argument", l.Code)
		}
	}
	return nil
}

func (c *Config) merge(fc fileConfig) {
	if fc.MergeBaseWith != nil {
		c.MergeBaseWith = *fc.MergeBaseWith
	}
	if fc.OnlyLintUnderConfigDir != nil {
		c.OnlyLintUnderConfigDir = *fc.OnlyLintUnderConfigDir
	}
	for _, l := range fc.Linters {
		replaced := false
		for i := range c.Linters {
			if c.Linters[i].Code == l.Code {
				c.Linters[i] = l
				replaced = true
				break
			}
		}
		if !replaced {
			c.Linters = append(c.Linters, l)
		}
	}
}

// PrimaryPath returns the first loaded config file.
func (c *Config) PrimaryPath() string {
	if len(c.Paths) == 0 {
		return ""
	}
	return c.Paths[0]
}

// Dir returns the directory of the primary config file. Linter commands run
// there and include/exclude patterns are relative to it.
func (c *Config) Dir() string {
	return filepath.Dir(c.PrimaryPath())
}

// Hash returns a digest of the raw contents of every loaded config file.
// It changes whenever any of the files change.
func (c *Config) Hash() string {
	h := sha256.New()
	for i, data := range c.raw {
		_, _ = fmt.Fprintf(h, "%s\x00", c.Paths[i])
		_, _ = h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HasInitCommands reports whether any linter defines an init_command.
func (c *Config) HasInitCommands() bool {
	for _, l := range c.Linters {
		if len(l.InitCommand) > 0 {
			return true
		}
	}
	return false
}

func containsPlaceholder(args []string, placeholder string) bool {
	for _, a := range args {
		if strings.Contains(a, placeholder) {
			return true
		}
	}
	return false
}

// Canonical returns the absolute form of p with every symlink resolved, so
// that paths reported by version control and paths built from the working
// directory compare equal.
func Canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
