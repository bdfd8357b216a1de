// Package cycle runs one update cycle: load the snapshot, fetch and validate
// the AI decision batch, execute and apply each trade, refresh prices, and
// persist the result.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"microcap_trading/internal/config"
	"microcap_trading/internal/decision"
	"microcap_trading/internal/ledger"
	"microcap_trading/internal/logger"
	"microcap_trading/internal/market"
	"microcap_trading/internal/models"
	"microcap_trading/internal/storage"

	"github.com/shopspring/decimal"
)

// Source produces the raw decision batch for the current portfolio.
type Source interface {
	Fetch(ctx context.Context, p models.Portfolio) ([]byte, error)
}

// Notifier receives the report of every completed cycle.
type Notifier interface {
	NotifyCycle(ctx context.Context, r *Report) error
}

type fill struct {
	exec      ledger.Execution
	reasoning string
}

// Runner wires the ledger to its collaborators. Prices and Notifier are
// optional. A Runner holds no locks: only one Run may be active at a time.
type Runner struct {
	Gateway  storage.Gateway
	Source   Source
	Broker   market.Broker
	Prices   market.PriceProvider
	Notifier Notifier
	Config   *config.Config
	Now      func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

// Run executes one cycle. Validation and persistence errors are returned as
// is; per-trade problems are reported in the Report and never abort the cycle.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	now := r.now()

	p, err := r.load(ctx, now)
	if err != nil {
		return nil, err
	}

	batch, err := r.fetchBatch(ctx, p, now)
	if err != nil {
		return nil, err
	}
	logger.Infof("Decision batch %s: %d decisions, %d stop-loss updates", batch.GeneratedAt, len(batch.Decisions), len(batch.StopLossUpdates))

	report := &Report{GeneratedAt: batch.GeneratedAt, RiskAssessment: batch.RiskAssessment}
	var fills []fill

	for i, d := range batch.Decisions {
		res := r.execute(ctx, p, d)
		if res.Status == StatusApplied {
			next, exec, err := ledger.Apply(p, *res.Outcome)
			if err != nil {
				logger.Warnf("Skipping decision %d (%s %s): %v", i, d.Action, d.Ticker, err)
				res.Status = StatusSkipped
				res.Reason = err.Error()
			} else {
				p = next
				res.Execution = &exec
				fills = append(fills, fill{exec: exec, reasoning: d.Reasoning})
				logger.Infof("Applied %s %s x%d @ %s", exec.Action, exec.Ticker, exec.Shares, exec.Price)
			}
		}
		report.add(res)
	}

	p, unmatched := ledger.ApplyStopLossUpdates(p, batch.StopLossUpdates)
	report.StopLossUpdated = len(batch.StopLossUpdates) - len(unmatched)
	report.StopLossUnmatched = unmatched
	for _, t := range unmatched {
		logger.Warnf("Stop-loss update for %s ignored: no open position", t)
	}

	if r.Prices != nil && len(p.Positions) > 0 {
		p = ledger.ApplyPrices(p, market.Quotes(r.Prices, p.Tickers()))
	}
	p = ledger.Recalculate(p)
	p.LastUpdated = now

	// trades already sent to the broker must be recorded even if ctx was canceled
	persistCtx := context.WithoutCancel(ctx)

	if err := r.Gateway.PutPortfolio(persistCtx, p); err != nil {
		logger.Errorf("Failed to persist portfolio: %v", err)
		return nil, err
	}

	for _, f := range fills {
		rec := ledger.NewTradeRecord(f.exec, f.reasoning, now)
		id, err := r.Gateway.AppendTradeRecord(persistCtx, rec)
		if err != nil {
			logger.Errorf("Failed to append trade record for %s: %v", f.exec.Ticker, err)
			return nil, err
		}
		rec.ID = id
		report.Records = append(report.Records, rec)
	}

	report.Portfolio = p
	logger.Infof("Cycle complete: applied=%d skipped=%d failed=%d holds=%d total=%s",
		report.Applied, report.Skipped, report.Failed, report.Holds, p.TotalValue.StringFixed(2))

	if r.Notifier != nil {
		if err := r.Notifier.NotifyCycle(persistCtx, report); err != nil {
			logger.Warnf("Cycle notification failed: %v", err)
		}
	}
	return report, nil
}

func (r *Runner) load(ctx context.Context, now time.Time) (models.Portfolio, error) {
	stored, err := r.Gateway.GetPortfolio(ctx)
	if err != nil {
		return models.Portfolio{}, err
	}
	if stored != nil {
		return *stored, nil
	}
	cash := decimal.NewFromFloat(r.Config.StartingCash)
	logger.Infof("No portfolio found, starting with %s cash", cash.StringFixed(2))
	return ledger.NewPortfolio(cash, now), nil
}

func (r *Runner) fetchBatch(ctx context.Context, p models.Portfolio, now time.Time) (*models.DecisionBatch, error) {
	raw, err := r.Source.Fetch(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("fetch decisions: %w", err)
	}
	return Decode(raw, r.Config, now)
}

// Decode runs Parse, Normalize (when enabled) and Validate on a raw batch.
func Decode(raw []byte, cfg *config.Config, now time.Time) (*models.DecisionBatch, error) {
	doc, err := decision.Parse(raw, cfg.DecisionPath)
	if err != nil {
		return nil, err
	}
	if cfg.FillDefaults {
		doc = decision.Normalize(doc, decision.Defaults{Version: cfg.SchemaVersion, Now: now})
	}
	batch, err := decision.Validate(doc, cfg.SchemaVersion)
	if err != nil {
		var ve *decision.ValidationError
		if errors.As(err, &ve) {
			logger.Errorf("Rejected decision batch at %s: %v", ve.Path(), err)
		}
		return nil, err
	}
	return batch, nil
}

// execute sends one decision to the broker. A result with StatusApplied
// carries a successful outcome that still has to go through the ledger.
func (r *Runner) execute(ctx context.Context, p models.Portfolio, d models.Decision) TradeResult {
	res := TradeResult{Decision: d}

	if d.Action == models.Hold || d.Shares == 0 {
		res.Status = StatusHold
		return res
	}
	if err := ctx.Err(); err != nil {
		res.Status = StatusFailed
		res.Reason = "cycle canceled"
		return res
	}

	if d.Action == models.Sell {
		if err := ledger.CheckSell(p, d.Ticker, d.Shares); err != nil {
			logger.Warnf("Skipping SELL %s x%d: %v", d.Ticker, d.Shares, err)
			res.Status = StatusSkipped
			res.Reason = err.Error()
			return res
		}
	}

	if d.Action == models.Buy {
		if price, ok := r.estimatePrice(d); ok {
			if err := ledger.CheckBuy(p, d.Ticker, d.Shares, price); err != nil {
				logger.Warnf("Skipping BUY %s x%d: %v", d.Ticker, d.Shares, err)
				res.Status = StatusSkipped
				res.Reason = err.Error()
				return res
			}
		}
	}

	out, err := r.Broker.Execute(ctx, d)
	if err != nil {
		logger.Warnf("Broker error for %s %s: %v", d.Action, d.Ticker, err)
		res.Status = StatusFailed
		res.Reason = err.Error()
		return res
	}
	res.Outcome = &out
	if !out.Success {
		logger.Warnf("%s %s not executed: %s", d.Action, d.Ticker, out.FailReason)
		res.Status = StatusFailed
		res.Reason = out.FailReason
		return res
	}

	res.Status = StatusApplied
	return res
}

// estimatePrice is the per-share price a BUY is checked against before it is
// sent: the limit price, or the current quote for market orders. Without a
// quote the fill is only checked by the ledger.
func (r *Runner) estimatePrice(d models.Decision) (decimal.Decimal, bool) {
	if d.OrderType == models.Limit && d.LimitPrice != nil {
		return *d.LimitPrice, true
	}
	if r.Prices == nil {
		return decimal.Zero, false
	}
	price, err := r.Prices.GetPrice(d.Ticker)
	if err != nil || !price.IsPositive() {
		logger.Debugf("No quote for %s before BUY, relying on the fill check: %v", d.Ticker, err)
		return decimal.Zero, false
	}
	return price, true
}
