package yahoo

import (
	"fmt"

	"microcap_trading/internal/market"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
)

var _ market.PriceProvider = (*Provider)(nil)

// Provider reads regular-market prices from Yahoo Finance. It covers
// micro-caps missing from Alpaca's IEX feed.
type Provider struct {
	get func(symbol string) (*finance.Quote, error)
}

func NewProvider() *Provider {
	return &Provider{get: quote.Get}
}

func (p *Provider) GetPrice(ticker string) (decimal.Decimal, error) {
	q, err := p.get(ticker)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get quote for %s: %w", ticker, err)
	}
	if q == nil {
		return decimal.Zero, fmt.Errorf("no quote found for %s", ticker)
	}
	return decimal.NewFromFloat(q.RegularMarketPrice), nil
}
