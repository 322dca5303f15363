package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/VoxDroid/lintrunner/internal/executor"
	"github.com/VoxDroid/lintrunner/internal/rage"
	"github.com/VoxDroid/lintrunner/internal/store"
)

var rageCmd = &cobra.Command{
	Use:   "rage",
	Short: "Create a report of a past lintrunner invocation",
	Long: "Print the log of a past invocation for a bug report, or upload it with --gist or --pastry.\n" +
		"Without --invocation an interactive picker lists recent runs. Example:\n  lintrunner rage --invocation 0",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := store.Open()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		opts := rage.Options{}
		opts.Gist, _ = cmd.Flags().GetBool("gist")
		opts.Pastry, _ = cmd.Flags().GetBool("pastry")
		if cmd.Flags().Changed("invocation") {
			n, _ := cmd.Flags().GetInt("invocation")
			opts.Invocation = &n
		}

		r := &rage.Rage{
			History: st,
			Runner:  executor.New(false, verbose),
			Stdout:  cmd.OutOrStdout(),
			Stderr:  cmd.ErrOrStderr(),
		}
		if in, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(in.Fd())) {
			r.Pick = rage.NewPicker(in, cmd.OutOrStdout())
		}
		return r.Do(cmd.Context(), opts)
	},
}

func init() {
	rageCmd.Flags().IntP("invocation", "i", 0, "Report the n-th most recent run (0 is the latest)")
	rageCmd.Flags().Bool("gist", false, "Upload the report with `gh gist create`")
	rageCmd.Flags().Bool("pastry", false, "Upload the report with pastry")
	rootCmd.AddCommand(rageCmd)
}
