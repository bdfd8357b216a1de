package market

import (
	"context"
	"strings"

	"microcap_trading/internal/logger"
	"microcap_trading/internal/models"

	"github.com/shopspring/decimal"
)

// PriceProvider returns the latest price for a ticker.
// Interfaces define behavior: Alpaca, Yahoo or a fake in tests all satisfy it.
type PriceProvider interface {
	GetPrice(ticker string) (decimal.Decimal, error)
}

// Broker turns one validated decision into a trade outcome. An outcome with
// Success == false means nothing was filled; an error means the broker could
// not be reached or gave no usable answer.
type Broker interface {
	Execute(ctx context.Context, d models.Decision) (models.TradeOutcome, error)
}

// Quotes collects prices for tickers. Failures and non-positive prices are
// logged and left out of the result.
func Quotes(p PriceProvider, tickers []string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(tickers))
	for _, t := range tickers {
		price, err := p.GetPrice(t)
		if err != nil {
			logger.Warnf("price lookup failed for %s: %v", t, err)
			continue
		}
		if !price.IsPositive() {
			logger.Warnf("no usable price for %s (got %s)", t, price)
			continue
		}
		out[t] = price
	}
	return out
}

// IsTerminal reports whether an order status can no longer fill.
func IsTerminal(status string) bool {
	switch strings.ToLower(status) {
	case "canceled", "rejected", "expired":
		return true
	}
	return false
}

// Failed builds an unsuccessful outcome for d.
func Failed(d models.Decision, reason string) models.TradeOutcome {
	return models.TradeOutcome{
		Ticker:     d.Ticker,
		Action:     d.Action,
		Shares:     d.Shares,
		Success:    false,
		FailReason: reason,
	}
}
