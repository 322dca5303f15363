package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvHome overrides the directory used to store lintrunner data.
	EnvHome = "LINTRUNNER_HOME"
	// EnvDB overrides the full path of the run history database.
	EnvDB = "LINTRUNNER_DB"
)

// DataDir returns the directory used to store lintrunner data.
func DataDir() (string, error) {
	if d := os.Getenv(EnvHome); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".lintrunner"), nil
}

// DBPath returns the full path to the SQLite database file.
func DBPath() (string, error) {
	if p := os.Getenv(EnvDB); p != "" {
		return p, nil
	}
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "lintrunner.db"), nil
}
