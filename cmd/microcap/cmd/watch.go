package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"microcap_trading/internal/config"
	"microcap_trading/internal/logger"
	"microcap_trading/internal/storage"

	"github.com/spf13/cobra"
)

var watchOpts runOptions

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run update cycles on a fixed interval",
	Long: `Run one cycle immediately, then one every WATCHER_POLL_INTERVAL minutes
until interrupted. Cycles never overlap. A storage failure stops the loop.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Create a context for graceful shutdown
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(c)

		go func() {
			select {
			case <-c:
				logger.Warnf("Watcher shutting down: system signal received.")
				cancel()
			case <-ctx.Done():
			}
		}()

		runner, notifier, closeFn, err := buildRunner(ctx, cfg, watchOpts)
		if err != nil {
			return err
		}
		defer closeFn()

		interval := time.Duration(cfg.PollIntervalMins) * time.Minute
		logger.Infof("Microcap %s initialized, polling every %d mins", cfg.Version, cfg.PollIntervalMins)

		runCycle := func() error {
			report, err := runner.Run(ctx)
			if err == nil {
				logger.Infof("%s", report.Summary())
				return nil
			}
			if errors.Is(err, storage.ErrPersistence) {
				if nerr := notifier.Notify(context.WithoutCancel(ctx), fmt.Sprintf("🚨 Ledger stopped: %v", err)); nerr != nil {
					logger.Warnf("Alert failed: %v", nerr)
				}
				return err
			}
			// bad batches and source outages only cost this cycle
			logger.Errorf("Cycle failed: %v", err)
			return nil
		}

		if err := runCycle(); err != nil {
			return err
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Infof("Main loop stopping...")
				return nil
			case <-ticker.C:
				if err := runCycle(); err != nil {
					return err
				}
				nextTick := time.Now().In(config.CetLoc).Add(interval)
				logger.Infof("Next check scheduled for: %s", nextTick.Format("2006-01-02 15:04:05 MST"))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchOpts.decisionsFile, "decisions", "", "read every batch from this file instead of the AI")
	watchCmd.Flags().BoolVar(&watchOpts.paper, "paper", false, "fill orders with the paper broker")
}
