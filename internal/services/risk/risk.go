// Package risk values positions against current quotes and derives a
// bounded portfolio health score.
package risk

import (
	"math"

	"MarketIntel/internal/domain/models"
)

const (
	neutralHealth = 50.0
	minHealth     = 0.0
	maxHealth     = 100.0
)

// Assess values every position at its quote. A position without a quote
// fails the whole assessment.
func Assess(account string, positions []models.Position, quotes map[string]models.Quote) (*models.RiskAnalysis, error) {
	res := &models.RiskAnalysis{
		Account:   account,
		Positions: make([]models.PositionRisk, 0, len(positions)),
	}
	for _, p := range positions {
		q, ok := quotes[p.Symbol]
		if !ok {
			return nil, models.NewDataInsufficient("quote for "+p.Symbol, 1, 0)
		}
		pr := models.PositionRisk{
			Symbol:     p.Symbol,
			Quantity:   p.Quantity,
			EntryPrice: p.EntryPrice,
			Price:      q.Price,
			ValueNow:   q.Price * p.Quantity,
			ValueEntry: p.EntryPrice * p.Quantity,
		}
		pr.Pnl = pr.ValueNow - pr.ValueEntry
		if pr.ValueEntry != 0 {
			pr.PnlPercent = pr.Pnl / math.Abs(pr.ValueEntry) * 100
		}
		res.Positions = append(res.Positions, pr)
		res.TotalPnl += pr.Pnl
		res.Exposure += math.Abs(pr.ValueNow)
	}
	res.HealthScore = HealthScore(res.TotalPnl, res.Exposure)
	return res, nil
}

// HealthScore is 50 shifted by P&L relative to exposure, clamped to [0,100].
func HealthScore(totalPnl, exposure float64) float64 {
	if exposure == 0 {
		return neutralHealth
	}
	return math.Max(minHealth, math.Min(maxHealth, neutralHealth+totalPnl/exposure*100))
}
