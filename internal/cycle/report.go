package cycle

import (
	"fmt"
	"strings"

	"microcap_trading/internal/ledger"
	"microcap_trading/internal/models"
)

// Status is what happened to one decision during a cycle.
type Status string

const (
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped" // rejected by the ledger
	StatusFailed  Status = "failed"  // broker error or unfilled order
	StatusHold    Status = "hold"
)

// TradeResult records the fate of one decision.
type TradeResult struct {
	Decision  models.Decision
	Status    Status
	Reason    string
	Outcome   *models.TradeOutcome
	Execution *ledger.Execution
}

// Report summarizes one update cycle.
type Report struct {
	GeneratedAt    string
	RiskAssessment string

	Applied int
	Skipped int
	Failed  int
	Holds   int

	StopLossUpdated   int
	StopLossUnmatched []string

	Trades    []TradeResult
	Records   []models.TradeRecord
	Portfolio models.Portfolio
}

func (r *Report) add(t TradeResult) {
	switch t.Status {
	case StatusApplied:
		r.Applied++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	case StatusHold:
		r.Holds++
	}
	r.Trades = append(r.Trades, t)
}

// Summary renders the report as plain text for logs and the terminal.
func (r *Report) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Cycle %s: applied=%d skipped=%d failed=%d holds=%d\n",
		r.GeneratedAt, r.Applied, r.Skipped, r.Failed, r.Holds)

	for _, t := range r.Trades {
		d := t.Decision
		switch t.Status {
		case StatusApplied:
			e := t.Execution
			fmt.Fprintf(&sb, "  %-7s %s %s x%d @ %s", t.Status, e.Action, e.Ticker, e.Shares, e.Price.String())
			if e.Action == models.Sell {
				fmt.Fprintf(&sb, " pnl %s", e.RealizedPnL.StringFixed(2))
			}
			sb.WriteString("\n")
		case StatusHold:
			fmt.Fprintf(&sb, "  %-7s %s\n", t.Status, d.Ticker)
		default:
			fmt.Fprintf(&sb, "  %-7s %s %s x%d: %s\n", t.Status, d.Action, d.Ticker, d.Shares, t.Reason)
		}
	}

	if r.StopLossUpdated > 0 || len(r.StopLossUnmatched) > 0 {
		fmt.Fprintf(&sb, "Stop losses updated: %d", r.StopLossUpdated)
		if len(r.StopLossUnmatched) > 0 {
			fmt.Fprintf(&sb, " (no position: %s)", strings.Join(r.StopLossUnmatched, ", "))
		}
		sb.WriteString("\n")
	}

	p := r.Portfolio
	fmt.Fprintf(&sb, "Cash %s | Equity %s | Total %s | %d positions",
		p.Cash.StringFixed(2), p.Equity.StringFixed(2), p.TotalValue.StringFixed(2), len(p.Positions))
	return sb.String()
}
