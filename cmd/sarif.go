package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/lintrunner/internal/sarif"
)

var sarifCmd = &cobra.Command{
	Use:   "sarif",
	Short: "Convert lintrunner JSON output to SARIF",
	Long:  "Convert the JSON lines written by --tee-json or --output=json into a SARIF 2.1.0 report. Example:\n  lintrunner sarif --input lint.json --output lintrunner.sarif",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		if err := sarif.ConvertFile(input, output); err != nil {
			return err
		}
		slog.Debug("wrote sarif report", "input", input, "output", output)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote SARIF report to %s\n", output)
		return nil
	},
}

func init() {
	sarifCmd.Flags().String("input", "", "lintrunner JSON lines file")
	// Shadows the persistent --output format flag.
	sarifCmd.Flags().String("output", "", "SARIF file to write")
	_ = sarifCmd.MarkFlagRequired("input")
	_ = sarifCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(sarifCmd)
}
