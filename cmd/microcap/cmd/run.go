package cmd

import (
	"github.com/spf13/cobra"
)

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one update cycle",
	Long: `Run one update cycle and print its report.

Validation failures abort before any trade or write. Per-trade problems are
reported and skipped. Storage failures exit non-zero.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, _, closeFn, err := buildRunner(cmd.Context(), cfg, runOpts)
		if err != nil {
			return err
		}
		defer closeFn()

		report, err := runner.Run(cmd.Context())
		if err != nil {
			return err
		}
		printf(cmd, "%s\n", report.Summary())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runOpts.decisionsFile, "decisions", "", "read the decision batch from this file instead of the AI")
	runCmd.Flags().BoolVar(&runOpts.paper, "paper", false, "fill orders with the paper broker")
}
