package cmd

import (
	"fmt"
	"os"
	"strings"

	"microcap_trading/internal/config"
	"microcap_trading/internal/logger"

	"github.com/spf13/cobra"
)

const VersionFile = "version.latest"

// version is overridden at build time with -ldflags "-X ...cmd.version=v1.2.3".
var version = ""

var (
	cfgFile string
	cfg     *config.Config
	logFile *logger.Rotator
)

var rootCmd = &cobra.Command{
	Use:   "microcap",
	Short: "AI-driven micro-cap portfolio ledger",
	Long: `Microcap keeps the books for a small, AI-managed micro-cap stock portfolio.

Each update cycle loads the current snapshot, asks the AI (or reads a file)
for a batch of trading decisions, validates it strictly, executes each trade
through the broker, applies fills to the ledger, refreshes prices and
persists the result together with an append-only trade journal.

Examples:
  microcap run --paper
  microcap run --decisions batch.json
  microcap watch
  microcap validate batch.json
  microcap trades --since 2024-01-01`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			os.Setenv("LEDGER_CONFIG", cfgFile)
		}
		c, err := config.Load()
		if err != nil {
			return err
		}
		c.Version = readVersion()
		cfg = c

		logFile = logger.Setup(logger.Options{
			Filename:   cfg.LogFile,
			MaxSizeMB:  cfg.MaxLogSizeMB,
			MaxBackups: cfg.MaxLogBackups,
			Level:      cfg.LogLevel,
		})
		if logger.Enabled(logger.LevelDebug) {
			config.LogEnvFile()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (overrides LEDGER_CONFIG)")
}

func readVersion() string {
	if version != "" {
		return version
	}
	// read version from VersionFile file
	b, err := os.ReadFile(VersionFile)
	if err != nil {
		return "v0.0.0-dev"
	}
	return strings.TrimSpace(string(b))
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
