package ledger

import (
	"microcap_trading/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ApplyPrices stores the latest quotes on matching positions. Tickers without a
// quote keep their previous CurrentPrice.
func ApplyPrices(p models.Portfolio, prices map[string]decimal.Decimal) models.Portfolio {
	next := p.Clone()
	for i := range next.Positions {
		if price, ok := prices[next.Positions[i].Ticker]; ok && price.IsPositive() {
			next.Positions[i].CurrentPrice = models.Dec(price)
		}
	}
	return next
}

// Recalculate derives position and portfolio valuation from shares, cost basis
// and current prices. It is pure and idempotent; afterwards
// TotalValue == sum(MarketValue) + Cash holds exactly.
func Recalculate(p models.Portfolio) models.Portfolio {
	next := p.Clone()
	equity := decimal.Zero

	for i := range next.Positions {
		pos := &next.Positions[i]
		if pos.CurrentPrice != nil {
			pos.MarketValue = decimal.NewFromInt(pos.Shares).Mul(*pos.CurrentPrice)
		}
		pos.UnrealizedPnL = pos.MarketValue.Sub(pos.CostBasis)
		if pos.CostBasis.IsZero() {
			pos.UnrealizedPnLPercent = nil
		} else {
			pos.UnrealizedPnLPercent = models.Dec(pos.UnrealizedPnL.Div(pos.CostBasis).Mul(hundred))
		}
		equity = equity.Add(pos.MarketValue)
	}

	next.Equity = equity
	next.TotalValue = equity.Add(next.Cash)
	return next
}
