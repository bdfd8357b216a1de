package sim

import (
	"context"
	"fmt"
	"time"

	"microcap_trading/internal/id"
	"microcap_trading/internal/market"
	"microcap_trading/internal/models"
)

var _ market.Broker = (*Broker)(nil)

// Broker is a paper executor. Market orders fill at the provider's current
// price; limit orders fill at the limit price when marketable and are
// reported as unfilled otherwise.
type Broker struct {
	Prices market.PriceProvider
	Now    func() time.Time
}

func NewBroker(prices market.PriceProvider) *Broker {
	return &Broker{Prices: prices, Now: time.Now}
}

func (b *Broker) Execute(ctx context.Context, d models.Decision) (models.TradeOutcome, error) {
	if err := ctx.Err(); err != nil {
		return market.Failed(d, "canceled"), err
	}
	if d.Action != models.Buy && d.Action != models.Sell {
		return market.Failed(d, fmt.Sprintf("nothing to execute for %s", d.Action)), nil
	}

	price, err := b.Prices.GetPrice(d.Ticker)
	if err != nil {
		return market.Failed(d, "no price"), fmt.Errorf("paper fill for %s: %w", d.Ticker, err)
	}
	if !price.IsPositive() {
		return market.Failed(d, "no price"), nil
	}

	fill := price
	if d.OrderType == models.Limit && d.LimitPrice != nil {
		limit := *d.LimitPrice
		marketable := (d.Action == models.Buy && price.LessThanOrEqual(limit)) ||
			(d.Action == models.Sell && price.GreaterThanOrEqual(limit))
		if !marketable {
			return market.Failed(d, fmt.Sprintf("limit %s not reached (last %s)", limit, price)), nil
		}
		fill = limit
	}

	now := time.Now
	if b.Now != nil {
		now = b.Now
	}

	return models.TradeOutcome{
		Ticker:      d.Ticker,
		Action:      d.Action,
		Shares:      d.Shares,
		FilledPrice: fill,
		StopLoss:    d.StopLoss,
		Success:     true,
		OrderID:     "paper-" + id.New(now()),
	}, nil
}
