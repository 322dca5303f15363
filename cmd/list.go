package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the linters lintrunner would run",
	Long:  "List the configured linters after --take and --skip. Example:\n  lintrunner list --skip MYPY",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := loadSession(cmd, false)
		if err != nil {
			return err
		}
		formattersOnly, _ := cmd.Flags().GetBool("formatters")
		linters, err := s.Linters(splitList(takeFlag), splitList(skipFlag), formattersOnly)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, "Available linters:")
		for _, l := range linters {
			if l.IsFormatter {
				_, _ = fmt.Fprintf(out, "  %s (formatter)\n", l.Code)
				continue
			}
			_, _ = fmt.Fprintf(out, "  %s\n", l.Code)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("formatters", false, "Only list formatters")
	rootCmd.AddCommand(listCmd)
}
