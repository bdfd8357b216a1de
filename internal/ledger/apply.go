package ledger

import (
	"time"

	"microcap_trading/internal/id"
	"microcap_trading/internal/models"

	"github.com/shopspring/decimal"
)

// NewPortfolio returns the empty snapshot used the first time none is stored.
func NewPortfolio(startingCash decimal.Decimal, now time.Time) models.Portfolio {
	return models.Portfolio{
		SchemaVersion: models.SchemaVersion,
		Cash:          startingCash,
		TotalValue:    startingCash,
		Equity:        decimal.Zero,
		Positions:     []models.Position{},
		LastUpdated:   now,
	}
}

// Execution describes a fill that was applied to the ledger.
type Execution struct {
	Ticker      string
	Action      models.Action
	Shares      int64
	Price       decimal.Decimal
	RealizedPnL decimal.Decimal // zero for BUY
	Closed      bool            // SELL removed the whole position
}

// Apply books one successfully filled outcome against p and returns the new
// snapshot. p is never modified; on error p is returned as is.
func Apply(p models.Portfolio, o models.TradeOutcome) (models.Portfolio, Execution, error) {
	if o.Shares <= 0 {
		return p, Execution{}, tradeErr(ErrInvalidOutcome, o, "shares must be positive, got %d", o.Shares)
	}
	if !o.FilledPrice.IsPositive() {
		return p, Execution{}, tradeErr(ErrInvalidOutcome, o, "filled price must be positive, got %s", o.FilledPrice)
	}

	switch o.Action {
	case models.Buy:
		return applyBuy(p, o)
	case models.Sell:
		return applySell(p, o)
	default:
		return p, Execution{}, tradeErr(ErrInvalidOutcome, o, "action %q is not tradable", o.Action)
	}
}

func applyBuy(p models.Portfolio, o models.TradeOutcome) (models.Portfolio, Execution, error) {
	shares := decimal.NewFromInt(o.Shares)
	cost := o.FilledPrice.Mul(shares)
	if cost.GreaterThan(p.Cash) {
		return p, Execution{}, tradeErr(ErrInsufficientFunds, o, "cost $%s exceeds cash $%s", cost.StringFixed(2), p.Cash.StringFixed(2))
	}

	next := p.Clone()
	price := o.FilledPrice

	if i := next.Find(o.Ticker); i >= 0 {
		pos := &next.Positions[i]
		newShares := pos.Shares + o.Shares
		newCostBasis := decimal.NewFromInt(pos.Shares).Mul(pos.BuyPrice).Add(cost)

		pos.Shares = newShares
		pos.CostBasis = newCostBasis
		pos.BuyPrice = newCostBasis.Div(decimal.NewFromInt(newShares))
		pos.CurrentPrice = models.Dec(price)
		pos.MarketValue = decimal.NewFromInt(newShares).Mul(price)
		if o.StopLoss != nil {
			pos.StopLoss = models.Dec(*o.StopLoss)
		}
	} else {
		var sl *decimal.Decimal
		if o.StopLoss != nil {
			sl = models.Dec(*o.StopLoss)
		}
		next.Positions = append(next.Positions, models.Position{
			Ticker:       o.Ticker,
			Shares:       o.Shares,
			BuyPrice:     price,
			CostBasis:    cost,
			StopLoss:     sl,
			CurrentPrice: models.Dec(price),
			MarketValue:  cost,
		})
	}

	next.Cash = next.Cash.Sub(cost)

	return next, Execution{
		Ticker: o.Ticker,
		Action: models.Buy,
		Shares: o.Shares,
		Price:  price,
	}, nil
}

func applySell(p models.Portfolio, o models.TradeOutcome) (models.Portfolio, Execution, error) {
	if err := checkSell(p, o); err != nil {
		return p, Execution{}, err
	}

	next := p.Clone()
	i := next.Find(o.Ticker)
	pos := &next.Positions[i]

	revenue := o.FilledPrice.Mul(decimal.NewFromInt(o.Shares))

	// A full exit releases the whole cost basis so the realized figure is exact.
	costBasisSold := pos.CostBasis
	closed := o.Shares == pos.Shares
	if !closed {
		costBasisSold = pos.CostBasis.Mul(decimal.NewFromInt(o.Shares)).Div(decimal.NewFromInt(pos.Shares))
	}
	realized := revenue.Sub(costBasisSold)

	if closed {
		next.Positions = append(next.Positions[:i], next.Positions[i+1:]...)
	} else {
		pos.Shares -= o.Shares
		pos.CostBasis = pos.CostBasis.Sub(costBasisSold)
		pos.CurrentPrice = models.Dec(o.FilledPrice)
		pos.MarketValue = decimal.NewFromInt(pos.Shares).Mul(o.FilledPrice)
	}

	next.Cash = next.Cash.Add(revenue)

	return next, Execution{
		Ticker:      o.Ticker,
		Action:      models.Sell,
		Shares:      o.Shares,
		Price:       o.FilledPrice,
		RealizedPnL: realized,
		Closed:      closed,
	}, nil
}

// CheckBuy reports ErrInsufficientFunds when shares at price would cost more
// than the cash on hand. price is an estimate; Apply re-checks the real fill.
func CheckBuy(p models.Portfolio, ticker string, shares int64, price decimal.Decimal) error {
	o := models.TradeOutcome{Ticker: ticker, Action: models.Buy, Shares: shares}
	cost := price.Mul(decimal.NewFromInt(shares))
	if cost.GreaterThan(p.Cash) {
		return tradeErr(ErrInsufficientFunds, o, "estimated cost $%s exceeds cash $%s", cost.StringFixed(2), p.Cash.StringFixed(2))
	}
	return nil
}

// CheckSell runs the SELL guards without touching p. The cycle uses it before
// an order reaches the brokerage.
func CheckSell(p models.Portfolio, ticker string, shares int64) error {
	return checkSell(p, models.TradeOutcome{Ticker: ticker, Action: models.Sell, Shares: shares})
}

func checkSell(p models.Portfolio, o models.TradeOutcome) error {
	i := p.Find(o.Ticker)
	if i < 0 {
		return tradeErr(ErrPositionNotFound, o, "no open position")
	}
	if held := p.Positions[i].Shares; o.Shares > held {
		return tradeErr(ErrInsufficientShares, o, "selling %d, holding %d", o.Shares, held)
	}
	return nil
}

// NewTradeRecord builds the journal entry for an applied execution.
func NewTradeRecord(exec Execution, reasoning string, now time.Time) models.TradeRecord {
	pnl := decimal.Zero
	if exec.Action == models.Sell {
		pnl = exec.RealizedPnL
	}
	return models.TradeRecord{
		ID:          id.New(now),
		Date:        now.UTC().Format("2006-01-02"),
		Ticker:      exec.Ticker,
		Action:      exec.Action,
		Shares:      exec.Shares,
		Price:       exec.Price,
		AIReasoning: reasoning,
		PnL:         pnl,
		CreatedAt:   now,
	}
}
