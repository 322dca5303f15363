package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempDirWithConfig(t *testing.T) string {
	t.Helper()
	d := t.TempDir()
	writeConfig(t, d, DefaultConfigName, "[[linter]]\ncode = 'TEST'\ninclude_patterns = ['**']\ncommand = ['echo', 'test']\n")
	return d
}

func TestFindConfigFileInCurrentDirectory(t *testing.T) {
	d := tempDirWithConfig(t)
	p, err := FindConfigFileFrom(d, DefaultConfigName)
	if err != nil {
		t.Fatalf("FindConfigFileFrom: %v", err)
	}
	if filepath.Base(p) != DefaultConfigName {
		t.Fatalf("unexpected path %s", p)
	}
}

func TestFindConfigFileInParentDirectory(t *testing.T) {
	d := tempDirWithConfig(t)
	sub := filepath.Join(d, "subdir")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	p, err := FindConfigFileFrom(sub, DefaultConfigName)
	if err != nil {
		t.Fatalf("FindConfigFileFrom: %v", err)
	}
	if filepath.Dir(p) != d {
		t.Fatalf("expected config in %s, got %s", d, p)
	}
}

func TestFindConfigFileUsesWorkingDirectory(t *testing.T) {
	d := tempDirWithConfig(t)
	nested := filepath.Join(d, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)
	p, err := FindConfigFile(DefaultConfigName)
	if err != nil {
		t.Fatalf("FindConfigFile: %v", err)
	}
	if filepath.Base(p) != DefaultConfigName {
		t.Fatalf("unexpected path %s", p)
	}
}

func TestFindConfigFileStopsAtGitRoot(t *testing.T) {
	d := tempDirWithConfig(t)
	// repo sits below the directory holding the config
	repo := filepath.Join(d, "repo")
	if err := os.MkdirAll(filepath.Join(repo, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(repo, "sub", "nested")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	_, err := FindConfigFileFrom(nested, DefaultConfigName)
	if err == nil || !strings.Contains(err.Error(), "Could not find '.lintrunner.toml'") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestFindConfigFileAtGitRoot(t *testing.T) {
	d := tempDirWithConfig(t)
	if err := os.MkdirAll(filepath.Join(d, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(d, "sub", "nested")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := FindConfigFileFrom(nested, DefaultConfigName); err != nil {
		t.Fatalf("expected config at git root to be found: %v", err)
	}
}

func TestFindConfigFileStopsAtMaxDepth(t *testing.T) {
	d := tempDirWithConfig(t)
	deep := d
	for i := 0; i < maxSearchDepth+1; i++ {
		deep = filepath.Join(deep, "x")
	}
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := FindConfigFileFrom(deep, DefaultConfigName); err == nil {
		t.Fatalf("expected search to stop before reaching the config")
	}
}
