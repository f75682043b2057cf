package models

import "time"

// Tier is the profitability bucket of a spread.
type Tier string

const (
	TierLow     Tier = "LOW"
	TierMedium  Tier = "MEDIUM"
	TierHigh    Tier = "HIGH"
	TierExtreme Tier = "EXTREME"
)

type Profitability struct {
	Tier  Tier    `json:"tier"`
	Score float64 `json:"score"`
}

// Opportunity is a price gap between two symbols of the same base asset.
// Pair and Prices are index-aligned; BuySymbol is the cheaper leg.
type Opportunity struct {
	Pair          [2]string     `json:"pair"`
	Prices        [2]float64    `json:"prices"`
	BuySymbol     string        `json:"buySymbol"`
	SellSymbol    string        `json:"sellSymbol"`
	SpreadAbs     float64       `json:"spreadAbs"`
	SpreadPct     float64       `json:"spreadPct"`
	Profitability Profitability `json:"profitability"`
}

type ArbitrageSummary struct {
	TotalOpportunities int     `json:"totalOpportunities"`
	AvgSpread          float64 `json:"avgSpread"`
	EfficiencyScore    float64 `json:"efficiencyScore"`
}

// RouteProfit estimates the gas-aware result of trading the top opportunity.
type RouteProfit struct {
	TradeSizeUSD   float64 `json:"tradeSizeUsd"`
	GasPriceGwei   float64 `json:"gasPriceGwei"`
	GrossProfitUSD float64 `json:"grossProfitUsd"`
	GasCostUSD     float64 `json:"gasCostUsd"`
	NetProfitUSD   float64 `json:"netProfitUsd"`
	Profitable     bool    `json:"profitable"`
}

type ArbitrageAnalysis struct {
	Quotes        map[string]Quote `json:"quotes"`
	Opportunities []Opportunity    `json:"opportunities"`
	Summary       ArbitrageSummary `json:"summary"`
	RouteProfit   *RouteProfit     `json:"routeProfit,omitempty"`
	GeneratedAt   time.Time        `json:"generatedAt"`
}
