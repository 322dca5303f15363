package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/lintrunner/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "lintrunner %s\n", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
