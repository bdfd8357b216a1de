package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"microcap_trading/internal/cycle"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a decision batch without trading",
	Long: `Parse, normalize and validate a decision batch file and print its typed
form. Nothing is executed or written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read batch: %w", err)
		}

		batch, err := cycle.Decode(raw, cfg, time.Now().UTC())
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(batch, "", "  ")
		if err != nil {
			return err
		}
		printf(cmd, "%s\n", out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
