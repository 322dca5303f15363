package lint

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/VoxDroid/lintrunner/internal/lintmsg"
)

// applyPatches writes each message's replacement to its file when the file
// still holds the message's original content. Stale patches are skipped with
// a warning on the session's stderr. It returns the messages that were not
// applied and the number of patches written.
func (s *Session) applyPatches(msgs []lintmsg.LintMessage) ([]lintmsg.LintMessage, int, error) {
	var remaining []lintmsg.LintMessage
	applied := 0
	for _, m := range msgs {
		if !m.HasReplacement() {
			remaining = append(remaining, m)
			continue
		}
		path := *m.Path
		st, err := os.Stat(path)
		if err != nil {
			return remaining, applied, fmt.Errorf("apply patch to %s: %w", path, err)
		}
		current, err := os.ReadFile(path)
		if err != nil {
			return remaining, applied, fmt.Errorf("apply patch to %s: %w", path, err)
		}
		if string(current) != *m.Original {
			slog.Warn("file changed since it was linted, not patching", "path", path, "linter", m.Code)
			_, _ = fmt.Fprintf(s.Stderr, "Warning: %s changed since %s linted it; not applying its patch.\n", path, m.Code)
			remaining = append(remaining, m)
			continue
		}
		if err := os.WriteFile(path, []byte(*m.Replacement), st.Mode().Perm()); err != nil {
			return remaining, applied, fmt.Errorf("apply patch to %s: %w", path, err)
		}
		slog.Debug("applied patch", "path", path, "linter", m.Code)
		applied++
	}
	return remaining, applied, nil
}
