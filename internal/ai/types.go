package ai

import (
	"microcap_trading/internal/models"

	"github.com/shopspring/decimal"
)

// PortfolioSnapshot represents the data payload sent to the AI.
type PortfolioSnapshot struct {
	Timestamp       string            `json:"timestamp"`
	ResponseVersion string            `json:"response_version"` // version the decision batch must carry
	Cash            decimal.Decimal   `json:"cash"`
	Equity          decimal.Decimal   `json:"equity"`
	TotalValue      decimal.Decimal   `json:"total_value"`
	Positions       []models.Position `json:"positions"`
}

func newSnapshot(p models.Portfolio, version, timestamp string) PortfolioSnapshot {
	positions := p.Positions
	if positions == nil {
		positions = []models.Position{}
	}
	return PortfolioSnapshot{
		Timestamp:       timestamp,
		ResponseVersion: version,
		Cash:            p.Cash,
		Equity:          p.Equity,
		TotalValue:      p.TotalValue,
		Positions:       positions,
	}
}
