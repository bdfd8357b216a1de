package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeOutcome is what the brokerage reports back for one decision.
// Outcomes with Success == false never reach the ledger.
type TradeOutcome struct {
	Ticker      string           `json:"ticker"`
	Action      Action           `json:"action"`
	Shares      int64            `json:"shares"`
	FilledPrice decimal.Decimal  `json:"filledPrice"`
	StopLoss    *decimal.Decimal `json:"stopLoss,omitempty"` // BUY only
	Success     bool             `json:"success"`
	OrderID     string           `json:"orderId,omitempty"`
	FailReason  string           `json:"failReason,omitempty"`
}

// Order represents a generic order found in any broker.
type Order struct {
	ID             string          `json:"id"`
	ClientOrderID  string          `json:"client_order_id"`
	Symbol         string          `json:"symbol"`
	Qty            decimal.Decimal `json:"qty"`
	FilledQty      decimal.Decimal `json:"filled_qty"`
	Type           string          `json:"type"`   // market, limit
	Side           string          `json:"side"`   // buy, sell
	Status         string          `json:"status"` // new, filled, canceled, expired, rejected
	FilledAvgPrice decimal.Decimal `json:"filled_avg_price"`
	CreatedAt      time.Time       `json:"created_at"`
	FilledAt       *time.Time      `json:"filled_at,omitempty"`
}

// BrokerPosition is a holding as the brokerage reports it.
type BrokerPosition struct {
	Symbol        string          `json:"symbol"`
	Qty           decimal.Decimal `json:"qty"`
	AvgEntryPrice decimal.Decimal `json:"avg_entry_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	MarketValue   decimal.Decimal `json:"market_value"`
}
