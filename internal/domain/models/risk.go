package models

import "time"

type PositionRisk struct {
	Symbol     string  `json:"symbol"`
	Quantity   float64 `json:"quantity"`
	EntryPrice float64 `json:"entryPrice"`
	Price      float64 `json:"price"`
	ValueNow   float64 `json:"valueNow"`
	ValueEntry float64 `json:"valueEntry"`
	Pnl        float64 `json:"pnl"`
	PnlPercent float64 `json:"pnlPercent"`
}

type RiskAnalysis struct {
	Account     string         `json:"account"`
	Positions   []PositionRisk `json:"positions"`
	TotalPnl    float64        `json:"totalPnl"`
	Exposure    float64        `json:"exposure"`
	HealthScore float64        `json:"healthScore"`
	GeneratedAt time.Time      `json:"generatedAt"`
}
