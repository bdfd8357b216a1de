package reconcile

import (
	"testing"

	"microcap_trading/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func broker(sym string, qty int64) models.BrokerPosition {
	return models.BrokerPosition{Symbol: sym, Qty: decimal.NewFromInt(qty)}
}

func TestCompare(t *testing.T) {
	p := models.Portfolio{Positions: []models.Position{
		{Ticker: "ABC", Shares: 10},
		{Ticker: "DEF", Shares: 5},
		{Ticker: "GHI", Shares: 2},
	}}

	drift := Compare(p, []models.BrokerPosition{broker("ABC", 10), broker("DEF", 4), broker("ZZZ", 1)})

	require.Len(t, drift, 3)
	assert.Equal(t, "DEF", drift[0].Ticker)
	assert.Equal(t, ShareMismatch, drift[0].Kind)
	assert.Equal(t, "5", drift[0].LedgerShares.String())
	assert.Equal(t, "4", drift[0].BrokerShares.String())
	assert.Equal(t, "GHI", drift[1].Ticker)
	assert.Equal(t, MissingAtBroker, drift[1].Kind)
	assert.Equal(t, "ZZZ", drift[2].Ticker)
	assert.Equal(t, UnknownToLedger, drift[2].Kind)
}

func TestCompare_InSync(t *testing.T) {
	p := models.Portfolio{Positions: []models.Position{{Ticker: "ABC", Shares: 10}}}
	assert.Empty(t, Compare(p, []models.BrokerPosition{broker("ABC", 10)}))
	assert.Empty(t, Compare(models.Portfolio{}, nil))
}
