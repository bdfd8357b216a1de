package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"microcap_trading/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrices map[string]decimal.Decimal

func (f fakePrices) GetPrice(t string) (decimal.Decimal, error) {
	p, ok := f[t]
	if !ok {
		return decimal.Zero, errors.New("unknown ticker")
	}
	return p, nil
}

func newBroker() *Broker {
	b := NewBroker(fakePrices{"ABC": decimal.RequireFromString("2.50")})
	b.Now = func() time.Time { return time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC) }
	return b
}

func limit(action models.Action, price string) models.Decision {
	lp := decimal.RequireFromString(price)
	return models.Decision{Action: action, Ticker: "ABC", Shares: 4, OrderType: models.Limit, LimitPrice: &lp}
}

func TestExecute_MarketFillsAtCurrentPrice(t *testing.T) {
	sl := decimal.RequireFromString("2.00")
	out, err := newBroker().Execute(context.Background(), models.Decision{
		Action: models.Buy, Ticker: "ABC", Shares: 4, OrderType: models.Market, StopLoss: &sl,
	})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "2.5", out.FilledPrice.String())
	assert.Equal(t, int64(4), out.Shares)
	assert.Equal(t, "2", out.StopLoss.String())
	assert.Contains(t, out.OrderID, "paper-2024-01-15-")
}

func TestExecute_Limit(t *testing.T) {
	b := newBroker()

	out, err := b.Execute(context.Background(), limit(models.Buy, "2.60"))
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "2.6", out.FilledPrice.String())

	out, err = b.Execute(context.Background(), limit(models.Buy, "2.40"))
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Contains(t, out.FailReason, "not reached")

	out, err = b.Execute(context.Background(), limit(models.Sell, "2.40"))
	require.NoError(t, err)
	assert.True(t, out.Success)

	out, err = b.Execute(context.Background(), limit(models.Sell, "3.00"))
	require.NoError(t, err)
	assert.False(t, out.Success)
}

func TestExecute_NoPrice(t *testing.T) {
	out, err := newBroker().Execute(context.Background(), models.Decision{Action: models.Sell, Ticker: "ZZZ", Shares: 1})
	assert.Error(t, err)
	assert.False(t, out.Success)
}

func TestExecute_Hold(t *testing.T) {
	out, err := newBroker().Execute(context.Background(), models.Decision{Action: models.Hold, Ticker: "ABC"})
	require.NoError(t, err)
	assert.False(t, out.Success)
}
