package lint

import (
	"context"
	"fmt"
	"log/slog"
)

// Init runs the init_command of every selected linter in turn. After a
// successful non-dry run the config hash is recorded so later runs can tell
// when init is stale.
func (s *Session) Init(ctx context.Context, take, skip []string, dryRun bool) error {
	s.init()
	linters, err := s.Linters(take, skip, false)
	if err != nil {
		return err
	}
	for _, l := range linters {
		if len(l.InitCommand) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(s.Stdout, "Initializing linter: '%s'\n", l.Code)
		if err := l.Init(ctx, dryRun, s.Stdin, s.Stdout, s.Stderr); err != nil {
			return err
		}
	}
	if dryRun {
		return nil
	}
	if s.Hashes != nil {
		if err := s.Hashes.SetInitHash(s.Config.PrimaryPath(), s.Config.Hash()); err != nil {
			return err
		}
		slog.Debug("recorded init hash", "config", s.Config.PrimaryPath())
	}
	_, _ = fmt.Fprintln(s.Stdout, "Successfully initialized linters.")
	return nil
}
