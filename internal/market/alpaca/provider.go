package alpaca

import (
	"context"
	"fmt"
	"strings"
	"time"

	"microcap_trading/internal/logger"
	"microcap_trading/internal/market"
	"microcap_trading/internal/models"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

// Ensure Provider implements both interfaces
var (
	_ market.PriceProvider = (*Provider)(nil)
	_ market.Broker        = (*Provider)(nil)
)

// tradingClient is the subset of *alpaca.Client used for execution.
type tradingClient interface {
	PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error)
	GetOrder(orderID string) (*alpaca.Order, error)
	CancelOrder(orderID string) error
	GetPositions() ([]alpaca.Position, error)
}

// Provider implements PriceProvider and Broker for Alpaca. Keys are read
// by the SDK from APCA_API_KEY_ID / APCA_API_SECRET_KEY / APCA_API_BASE_URL.
type Provider struct {
	mdClient    *marketdata.Client
	tradeClient tradingClient

	// PollAttempts is how many times an order is checked before giving up.
	PollAttempts int
	PollInterval time.Duration
}

// NewProvider returns a new Alpaca provider.
func NewProvider(pollAttempts int) *Provider {
	return &Provider{
		mdClient:     marketdata.NewClient(marketdata.ClientOpts{}),
		tradeClient:  alpaca.NewClient(alpaca.ClientOpts{}),
		PollAttempts: pollAttempts,
		PollInterval: time.Second,
	}
}

// --- Market Data ---

func (p *Provider) GetPrice(ticker string) (decimal.Decimal, error) {
	trade, err := p.mdClient.GetLatestTrade(ticker, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return decimal.Zero, err
	}
	if trade == nil {
		return decimal.Zero, fmt.Errorf("no trade found for %s", ticker)
	}
	return decimal.NewFromFloat(trade.Price), nil
}

// --- Execution ---

// Execute places the order and waits for it to fill. Orders still working
// after PollAttempts checks are canceled; whatever filled before the cancel
// is reported, otherwise the outcome is unsuccessful.
func (p *Provider) Execute(ctx context.Context, d models.Decision) (models.TradeOutcome, error) {
	req, err := orderRequest(d)
	if err != nil {
		return market.Failed(d, err.Error()), nil
	}

	o, err := p.tradeClient.PlaceOrder(req)
	if err != nil {
		return market.Failed(d, "order rejected by broker"), fmt.Errorf("place order %s %s: %w", d.Action, d.Ticker, err)
	}
	logger.Infof("Placed %s %s x%d (order %s, %s/%s)", d.Action, d.Ticker, d.Shares, o.ID, req.Type, req.TimeInForce)

	order, err := p.verifyOrderExecution(ctx, o.ID)
	if order == nil || !done(order.Status) {
		// nothing may stay working at the broker once the cycle moves on
		if final := p.cancelOpenOrder(o.ID); final != nil {
			order = final
		}
	}
	if order != nil && order.FilledQty.IsPositive() {
		// shares that filled moved the account even if polling was cut short
		return outcome(d, order), nil
	}
	if err != nil {
		return market.Failed(d, "order status unknown"), err
	}
	if order == nil {
		return market.Failed(d, "order status unknown"), fmt.Errorf("order %s: no status", o.ID)
	}
	return outcome(d, order), nil
}

func done(status string) bool {
	status = strings.ToLower(status)
	return status == "filled" || market.IsTerminal(status)
}

// cancelOpenOrder cancels an order that is still working and re-reads it so
// the caller sees the final filled quantity. It returns nil when the order
// cannot be read back.
func (p *Provider) cancelOpenOrder(orderID string) *models.Order {
	if err := p.tradeClient.CancelOrder(orderID); err != nil {
		// the order may have filled or expired in between
		logger.Warnf("Cancel order %s failed: %v", orderID, err)
	} else {
		logger.Infof("Canceled unfilled order %s", orderID)
	}

	o, err := p.tradeClient.GetOrder(orderID)
	if err != nil {
		logger.Warnf("Re-reading order %s after cancel failed: %v", orderID, err)
		return nil
	}
	return mapOrder(o)
}

func orderRequest(d models.Decision) (alpaca.PlaceOrderRequest, error) {
	var side alpaca.Side
	switch d.Action {
	case models.Buy:
		side = alpaca.Buy
	case models.Sell:
		side = alpaca.Sell
	default:
		return alpaca.PlaceOrderRequest{}, fmt.Errorf("nothing to execute for %s", d.Action)
	}

	qty := decimal.NewFromInt(d.Shares)
	req := alpaca.PlaceOrderRequest{
		Symbol:      d.Ticker,
		Qty:         &qty,
		Side:        side,
		Type:        alpaca.Market,
		TimeInForce: alpaca.Day,
	}
	if d.TimeInForce == models.GTC {
		req.TimeInForce = alpaca.GTC
	}
	if d.OrderType == models.Limit {
		if d.LimitPrice == nil {
			return req, fmt.Errorf("limit order without limit price")
		}
		lp := *d.LimitPrice
		req.Type = alpaca.Limit
		req.LimitPrice = &lp
	}
	return req, nil
}

// verifyOrderExecution polls the order until it is filled, terminal, or the
// attempts run out, and returns the last state seen.
func (p *Provider) verifyOrderExecution(ctx context.Context, orderID string) (*models.Order, error) {
	attempts := p.PollAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last *models.Order
	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-time.After(p.PollInterval):
		}

		o, err := p.tradeClient.GetOrder(orderID)
		if err != nil {
			logger.Warnf("Verification poll failed: %v", err)
			continue
		}
		last = mapOrder(o)

		if done(last.Status) {
			return last, nil
		}
	}

	if last == nil {
		return nil, fmt.Errorf("order %s: no status after %d checks", orderID, attempts)
	}
	return last, nil
}

func outcome(d models.Decision, o *models.Order) models.TradeOutcome {
	status := strings.ToLower(o.Status)
	filled := o.FilledQty.IntPart()

	// a partial fill already moved the account, so the ledger follows it
	if (status == "filled" || filled > 0) && o.FilledAvgPrice.IsPositive() {
		if status != "filled" {
			logger.Warnf("Order %s for %s only partially filled (%d of %d, status %s)", o.ID, d.Ticker, filled, d.Shares, status)
		}
		return models.TradeOutcome{
			Ticker:      d.Ticker,
			Action:      d.Action,
			Shares:      filled,
			FilledPrice: o.FilledAvgPrice,
			StopLoss:    d.StopLoss,
			Success:     true,
			OrderID:     o.ID,
		}
	}

	out := market.Failed(d, fmt.Sprintf("order %s", status))
	if !market.IsTerminal(status) {
		out.FailReason = fmt.Sprintf("order not filled (status %s)", status)
	}
	out.OrderID = o.ID
	return out
}

// ListPositions returns the open positions held at the broker.
func (p *Provider) ListPositions() ([]models.BrokerPosition, error) {
	alpacaPositions, err := p.tradeClient.GetPositions()
	if err != nil {
		return nil, err
	}

	result := make([]models.BrokerPosition, 0, len(alpacaPositions))
	for _, x := range alpacaPositions {
		// Alpaca reports some fields as optional pointers
		current := decimal.Zero
		if x.CurrentPrice != nil {
			current = *x.CurrentPrice
		}
		marketValue := decimal.Zero
		if x.MarketValue != nil {
			marketValue = *x.MarketValue
		}
		result = append(result, models.BrokerPosition{
			Symbol:        x.Symbol,
			Qty:           x.Qty,
			AvgEntryPrice: x.AvgEntryPrice,
			CurrentPrice:  current,
			MarketValue:   marketValue,
		})
	}
	return result, nil
}

func mapOrder(o *alpaca.Order) *models.Order {
	if o == nil {
		return nil
	}

	var qty decimal.Decimal
	if o.Qty != nil {
		qty = *o.Qty
	}
	var filledAvgPrice decimal.Decimal
	if o.FilledAvgPrice != nil {
		filledAvgPrice = *o.FilledAvgPrice
	}

	return &models.Order{
		ID:             o.ID,
		ClientOrderID:  o.ClientOrderID,
		Symbol:         o.Symbol,
		Qty:            qty,
		FilledQty:      o.FilledQty,
		Type:           string(o.Type),
		Side:           string(o.Side),
		Status:         o.Status,
		FilledAvgPrice: filledAvgPrice,
		CreatedAt:      o.CreatedAt,
		FilledAt:       o.FilledAt,
	}
}
