package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SchemaVersion is the current snapshot layout. Older snapshots are migrated on read.
const SchemaVersion = "1.1"

// Position is a ticker's current holding.
//
// Optional prices are pointers: a nil CurrentPrice means no quote has been seen
// yet, a nil UnrealizedPnLPercent means the ratio is undefined (zero cost basis).
type Position struct {
	Ticker               string           `json:"ticker"`
	Shares               int64            `json:"shares"`
	BuyPrice             decimal.Decimal  `json:"buyPrice"`  // weighted-average cost per share
	CostBasis            decimal.Decimal  `json:"costBasis"` // total cost of the shares still held
	StopLoss             *decimal.Decimal `json:"stopLoss"`
	CurrentPrice         *decimal.Decimal `json:"currentPrice"`
	MarketValue          decimal.Decimal  `json:"marketValue"`
	UnrealizedPnL        decimal.Decimal  `json:"unrealizedPnL"`
	UnrealizedPnLPercent *decimal.Decimal `json:"unrealizedPnLPercent"`
}

// Portfolio is the single authoritative snapshot persisted as one unit.
type Portfolio struct {
	SchemaVersion string          `json:"schemaVersion"`
	Cash          decimal.Decimal `json:"cash"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	Equity        decimal.Decimal `json:"equity"`
	Positions     []Position      `json:"positions"`
	LastUpdated   time.Time       `json:"lastUpdated"`
}

// Clone returns a deep copy, so callers can mutate the result without touching p.
func (p Portfolio) Clone() Portfolio {
	out := p
	out.Positions = make([]Position, len(p.Positions))
	for i, pos := range p.Positions {
		out.Positions[i] = pos.clone()
	}
	return out
}

// Find returns the index of the position for ticker, or -1.
func (p Portfolio) Find(ticker string) int {
	for i := range p.Positions {
		if p.Positions[i].Ticker == ticker {
			return i
		}
	}
	return -1
}

// Tickers lists held tickers in position order.
func (p Portfolio) Tickers() []string {
	out := make([]string, 0, len(p.Positions))
	for _, pos := range p.Positions {
		out = append(out, pos.Ticker)
	}
	return out
}

func (pos Position) clone() Position {
	out := pos
	out.StopLoss = copyDecimal(pos.StopLoss)
	out.CurrentPrice = copyDecimal(pos.CurrentPrice)
	out.UnrealizedPnLPercent = copyDecimal(pos.UnrealizedPnLPercent)
	return out
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

// Dec returns a pointer to d, for optional decimal fields.
func Dec(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// TradeRecord is an append-only journal entry. It is never mutated once written.
type TradeRecord struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Ticker      string          `json:"ticker"`
	Action      Action          `json:"action"`
	Shares      int64           `json:"shares"`
	Price       decimal.Decimal `json:"price"`
	AIReasoning string          `json:"aiReasoning"`
	PnL         decimal.Decimal `json:"pnl"` // zero for BUY
	CreatedAt   time.Time       `json:"createdAt"`
}
