package models

import "time"

// Action is a discrete trade recommendation.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Indicators are the inputs the signal rules were evaluated on.
type Indicators struct {
	SMA20      float64 `json:"sma20"`
	SMA50      float64 `json:"sma50"`
	RSI14      float64 `json:"rsi14"`
	Volatility float64 `json:"volatility"`
}

// TradeSignal is the aggregated outcome of the rule set.
type TradeSignal struct {
	Action   Action  `json:"action"`
	Strength float64 `json:"strength"`
	Reason   string  `json:"reason"`
}

type SignalAnalysis struct {
	Symbol       string      `json:"symbol"`
	Interval     string      `json:"interval"`
	CurrentPrice float64     `json:"currentPrice"`
	Indicators   Indicators  `json:"indicators"`
	Signal       TradeSignal `json:"signal"`
	Candles      []Candle    `json:"candles"`
	GeneratedAt  time.Time   `json:"generatedAt"`
}
