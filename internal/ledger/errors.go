package ledger

import (
	"errors"
	"fmt"

	"microcap_trading/internal/models"
)

// Ledger invariant violations. A TradeError always wraps exactly one of these.
var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrPositionNotFound   = errors.New("position not found")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrInvalidOutcome     = errors.New("invalid trade outcome")
)

// TradeError is returned when one outcome cannot be applied.
// It is per-trade: the caller skips the trade and keeps going.
type TradeError struct {
	Kind   error
	Ticker string
	Action models.Action
	Detail string
}

func (e *TradeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: %v", e.Action, e.Ticker, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v (%s)", e.Action, e.Ticker, e.Kind, e.Detail)
}

func (e *TradeError) Unwrap() error { return e.Kind }

func tradeErr(kind error, o models.TradeOutcome, format string, args ...any) *TradeError {
	return &TradeError{
		Kind:   kind,
		Ticker: o.Ticker,
		Action: o.Action,
		Detail: fmt.Sprintf(format, args...),
	}
}
