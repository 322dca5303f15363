// Command lintrunner-release cuts a release: changelog, version bump,
// commit, annotated tag and push.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/lintrunner/internal/logger"
	"github.com/VoxDroid/lintrunner/internal/release"
)

func newReleaseCmd() *cobra.Command {
	opts := release.Options{}
	var verbose bool
	c := &cobra.Command{
		Use:          "lintrunner-release <version>",
		Short:        "Tag and publish a lintrunner release",
		Long:         "Regenerate the changelog, bump the manifest version, commit, tag v<version> and push.\nExample:\n  lintrunner-release 1.4.0",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cleanup := logger.Setup(logger.Config{Verbose: verbose, Stderr: cmd.ErrOrStderr()})
			defer cleanup()

			opts.Version = args[0]
			opts.Stdout = cmd.OutOrStdout()
			opts.Stderr = cmd.ErrOrStderr()
			return release.New(verbose).Release(cmd.Context(), opts)
		},
	}
	f := c.Flags()
	f.StringVar(&opts.Manifest, "manifest", release.DefaultManifest, "Manifest file holding the version line")
	f.StringVar(&opts.Changelog, "changelog", release.DefaultChangelog, "Changelog file to regenerate")
	f.StringVar(&opts.Remote, "remote", release.DefaultRemote, "Remote to push to")
	f.StringVar(&opts.Branch, "branch", release.DefaultBranch, "Branch to push")
	f.StringVar(&opts.ChangelogCmd, "changelog-cmd", release.DefaultChangelogCmd, "Changelog generator command")
	f.BoolVar(&opts.DryRun, "dry-run", false, "Print the steps without running them")
	f.BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	return c
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newReleaseCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
