package ledger

import "microcap_trading/internal/models"

// ApplyStopLossUpdates overwrites the stop-loss of each matching position.
// Updates for tickers that are not held change nothing; they are returned so
// the caller can report them.
func ApplyStopLossUpdates(p models.Portfolio, updates []models.StopLossUpdate) (models.Portfolio, []string) {
	next := p.Clone()
	var unmatched []string
	for _, u := range updates {
		i := next.Find(u.Ticker)
		if i < 0 {
			unmatched = append(unmatched, u.Ticker)
			continue
		}
		next.Positions[i].StopLoss = models.Dec(u.StopLoss)
	}
	return next, unmatched
}
