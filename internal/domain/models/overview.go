package models

import "time"

// MarketOverview consolidates the per-symbol analytics. Modules that failed
// are nil and their error text is kept in Errors.
type MarketOverview struct {
	Symbol      string              `json:"symbol"`
	Interval    string              `json:"interval"`
	Signal      *SignalAnalysis     `json:"signal,omitempty"`
	Volatility  *VolatilityAnalysis `json:"volatility,omitempty"`
	Sentiment   *SentimentAnalysis  `json:"sentiment,omitempty"`
	Errors      map[string]string   `json:"errors,omitempty"`
	GeneratedAt time.Time           `json:"generatedAt"`
}
