package cmd

import "github.com/spf13/cobra"

var formatCmd = &cobra.Command{
	Use:   "format [paths...]",
	Short: "Run formatters and apply their patches",
	Long:  "Run only linters marked is_formatter, apply every patch they suggest, and report what could not be fixed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLint(cmd, args, true)
	},
}

func init() {
	rootCmd.AddCommand(formatCmd)
}
