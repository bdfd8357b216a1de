package cmd

import (
	"encoding/json"
	"fmt"

	"microcap_trading/internal/models"
	"microcap_trading/internal/storage"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var showJSON bool

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	gainStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	lossStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current portfolio snapshot",
	Args:  cobra.NoArgs,
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
			printf(cmd, "No portfolio yet. The first cycle starts with $%.2f.\n", cfg.StartingCash)
			return nil
		}

		if showJSON {
			b, err := json.MarshalIndent(p, "", "  ")
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", b)
			return nil
		}
		printf(cmd, "%s\n", renderPortfolio(*p))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the raw snapshot JSON")
}

func renderPortfolio(p models.Portfolio) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("TICKER", "SHARES", "AVG COST", "PRICE", "STOP", "VALUE", "P&L", "P&L %")

	for _, pos := range p.Positions {
		price, stop, pct := "-", "-", "-"
		if pos.CurrentPrice != nil {
			price = pos.CurrentPrice.String()
		}
		if pos.StopLoss != nil {
			stop = pos.StopLoss.String()
		}
		if pos.UnrealizedPnLPercent != nil {
			pct = pos.UnrealizedPnLPercent.StringFixed(2) + "%"
		}
		pnl := pos.UnrealizedPnL.StringFixed(2)
		if pos.UnrealizedPnL.IsNegative() {
			pnl = lossStyle.Render(pnl)
		} else if pos.UnrealizedPnL.IsPositive() {
			pnl = gainStyle.Render(pnl)
		}
		t.Row(pos.Ticker, fmt.Sprint(pos.Shares), pos.BuyPrice.StringFixed(2), price, stop,
			pos.MarketValue.StringFixed(2), pnl, pct)
	}

	header := titleStyle.Render(fmt.Sprintf("Portfolio as of %s", p.LastUpdated.Format("2006-01-02 15:04 MST")))
	footer := fmt.Sprintf("Cash %s | Equity %s | Total %s",
		p.Cash.StringFixed(2), p.Equity.StringFixed(2), p.TotalValue.StringFixed(2))
	return lipgloss.JoinVertical(lipgloss.Left, header, t.String(), footer)
}
