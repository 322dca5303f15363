package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// DefaultConfigName is the config file searched for when --config is not given.
const DefaultConfigName = ".lintrunner.toml"

// maxSearchDepth bounds how many directories FindConfigFile climbs.
const maxSearchDepth = 10

// FindConfigFile searches for name starting at the current working directory.
func FindConfigFile(name string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	return FindConfigFileFrom(cwd, name)
}

// FindConfigFileFrom walks from start up through its parents looking for
// name. The walk stops at a directory containing .git, after maxSearchDepth
// levels, or at the filesystem root. The returned path is absolute.
func FindConfigFileFrom(start, name string) (string, error) {
	cur, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for depth := 0; ; {
		candidate := filepath.Join(cur, name)
		if _, err := os.Stat(candidate); err == nil {
			slog.Debug("found config file", "path", candidate)
			return candidate, nil
		}
		if _, err := os.Stat(filepath.Join(cur, ".git")); err == nil {
			slog.Debug("hit git repository root", "dir", cur)
			break
		}
		depth++
		if depth >= maxSearchDepth {
			slog.Debug("hit maximum search depth", "depth", maxSearchDepth)
			break
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			slog.Debug("hit root directory")
			break
		}
		cur = parent
	}
	return "", fmt.Errorf("Could not find '%s' in current directory or any parent directory (searched up to %d levels or until git repository root)", name, maxSearchDepth)
}
