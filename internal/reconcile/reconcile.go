// Package reconcile compares the ledger with the positions a broker reports.
// The ledger stays authoritative: drift is reported, never written back.
package reconcile

import (
	"sort"

	"microcap_trading/internal/models"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	MissingAtBroker Kind = "missing_at_broker" // held in the ledger only
	UnknownToLedger Kind = "unknown_to_ledger" // held at the broker only
	ShareMismatch   Kind = "share_mismatch"
)

// Drift is one ticker on which the ledger and the broker disagree.
type Drift struct {
	Ticker       string
	Kind         Kind
	LedgerShares decimal.Decimal
	BrokerShares decimal.Decimal
}

// PositionLister is implemented by brokers that can report holdings.
type PositionLister interface {
	ListPositions() ([]models.BrokerPosition, error)
}

// Compare returns every disagreement between p and the broker holdings,
// sorted by ticker. An empty result means the books match.
func Compare(p models.Portfolio, broker []models.BrokerPosition) []Drift {
	held := make(map[string]decimal.Decimal, len(broker))
	for _, b := range broker {
		held[b.Symbol] = held[b.Symbol].Add(b.Qty)
	}

	var out []Drift
	for _, pos := range p.Positions {
		ledger := decimal.NewFromInt(pos.Shares)
		bq, ok := held[pos.Ticker]
		delete(held, pos.Ticker)
		switch {
		case !ok:
			out = append(out, Drift{Ticker: pos.Ticker, Kind: MissingAtBroker, LedgerShares: ledger})
		case !bq.Equal(ledger):
			out = append(out, Drift{Ticker: pos.Ticker, Kind: ShareMismatch, LedgerShares: ledger, BrokerShares: bq})
		}
	}
	for sym, q := range held {
		if q.IsZero() {
			continue
		}
		out = append(out, Drift{Ticker: sym, Kind: UnknownToLedger, BrokerShares: q})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}
