package models

import "github.com/shopspring/decimal"

type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
	Hold Action = "HOLD"
)

type OrderType string

const (
	Market OrderType = "market"
	Limit  OrderType = "limit"
)

type TimeInForce string

const (
	Day TimeInForce = "day"
	GTC TimeInForce = "gtc"
)

// Decision is one validated AI instruction.
type Decision struct {
	Action      Action           `json:"action"`
	Ticker      string           `json:"ticker"`
	Shares      int64            `json:"shares"`
	OrderType   OrderType        `json:"orderType"`
	LimitPrice  *decimal.Decimal `json:"limitPrice,omitempty"`
	TimeInForce TimeInForce      `json:"timeInForce"`
	StopLoss    *decimal.Decimal `json:"stopLoss,omitempty"`
	Reasoning   string           `json:"reasoning,omitempty"`
	Confidence  *float64         `json:"confidence,omitempty"`
}

type StopLossUpdate struct {
	Ticker   string          `json:"ticker"`
	StopLoss decimal.Decimal `json:"stopLoss"`
}

// DecisionBatch is the strongly typed form of an AI decision payload.
// Only the decision validator produces it.
type DecisionBatch struct {
	Version         string           `json:"version"`
	GeneratedAt     string           `json:"generatedAt"`
	Decisions       []Decision       `json:"decisions"`
	StopLossUpdates []StopLossUpdate `json:"stopLossUpdates"`
	RiskAssessment  string           `json:"riskAssessment,omitempty"`
	Notes           string           `json:"notes,omitempty"`
}
