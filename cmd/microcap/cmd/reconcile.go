package cmd

import (
	"fmt"

	"microcap_trading/internal/market/alpaca"
	"microcap_trading/internal/models"
	"microcap_trading/internal/reconcile"
	"microcap_trading/internal/storage"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare ledger positions with the Alpaca account",
	Long: `Compare ledger positions with the positions held at Alpaca and list
every difference. The ledger is never modified. Exits non-zero when the books
disagree.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := storage.Open(cfg)
		if err != nil {
			return err
		}
		defer gw.Close()

		p, err := gw.GetPortfolio(cmd.Context())
		if err != nil {
			return err
		}
		if p == nil {
			p = &models.Portfolio{}
		}

		var lister reconcile.PositionLister = alpaca.NewProvider(cfg.OrderPollAttempts)
		held, err := lister.ListPositions()
		if err != nil {
			return fmt.Errorf("list broker positions: %w", err)
		}

		drift := reconcile.Compare(*p, held)
		if len(drift) == 0 {
			printf(cmd, "Ledger and broker agree on %d positions.\n", len(p.Positions))
			return nil
		}

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("TICKER", "ISSUE", "LEDGER", "BROKER")
		for _, d := range drift {
			t.Row(d.Ticker, string(d.Kind), d.LedgerShares.String(), d.BrokerShares.String())
		}
		printf(cmd, "%s\n", t.String())
		return fmt.Errorf("%d positions out of sync", len(drift))
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
