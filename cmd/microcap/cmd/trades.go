package cmd

import (
	"fmt"
	"time"

	"microcap_trading/internal/models"
	"microcap_trading/internal/storage"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var tradesSince string

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List trade records, newest first",
	Long: `List trade records from the journal, newest first.

Examples:
  microcap trades
  microcap trades --since 2024-01-15`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var since time.Time
		if tradesSince != "" {
			t, err := time.Parse(time.DateOnly, tradesSince)
			if err != nil {
				return fmt.Errorf("--since must be YYYY-MM-DD: %w", err)
			}
			since = t
		}

		gw, err := storage.Open(cfg)
		if err != nil {
			return err
		}
		defer gw.Close()

		recs, err := gw.QueryTradeRecords(cmd.Context(), since)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			printf(cmd, "No trades.\n")
			return nil
		}
		printf(cmd, "%s\n", renderTrades(recs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tradesCmd)
	tradesCmd.Flags().StringVar(&tradesSince, "since", "", "only trades on or after this date (YYYY-MM-DD)")
}

func renderTrades(recs []models.TradeRecord) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("DATE", "ACTION", "TICKER", "SHARES", "PRICE", "P&L", "REASONING")

	for _, r := range recs {
		pnl := "-"
		if r.Action == models.Sell {
			pnl = r.PnL.StringFixed(2)
			if r.PnL.IsNegative() {
				pnl = lossStyle.Render(pnl)
			} else {
				pnl = gainStyle.Render(pnl)
			}
		}
		t.Row(r.Date, string(r.Action), r.Ticker, fmt.Sprint(r.Shares), r.Price.String(), pnl, truncate(r.AIReasoning, 48))
	}
	return t.String()
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
