package cmd

import (
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Run the init_command of every selected linter",
	Long:  "Install what the configured linters need by running their init_command. Example:\n  lintrunner init --dry-run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dry, _ := cmd.Flags().GetBool("dry-run")
		s, err := loadSession(cmd, true)
		if err != nil {
			return err
		}
		return s.Init(cmd.Context(), splitList(takeFlag), splitList(skipFlag), dry)
	},
}

func init() {
	initCmd.Flags().Bool("dry-run", false, "Ask linters to report what they would install instead of installing it")
	rootCmd.AddCommand(initCmd)
}
