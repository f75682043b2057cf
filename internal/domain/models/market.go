package models

import "time"

// Candle is one OHLCV bar. Candle slices are always newest-first.
type Candle struct {
	Datetime string  `json:"datetime"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   string  `json:"volume"`
}

// Closes returns the close prices of candles in the same order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Quote is the latest known price of a symbol.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// NewsItem is a single article; Datetime is unix seconds.
type NewsItem struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
	Datetime int64  `json:"datetime"`
}

// Position is an open holding of an account.
type Position struct {
	Symbol     string  `json:"symbol"`
	Quantity   float64 `json:"quantity"`
	EntryPrice float64 `json:"entryPrice"`
}

// Tick is a single trade print from the live stream.
type Tick struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"p"`
	Volume    float64 `json:"v"`
	Timestamp int64   `json:"t"` // unix ms
}

// Time returns the tick time.
func (t Tick) Time() time.Time { return time.UnixMilli(t.Timestamp) }

// SentimentStats holds externally sourced bullish/bearish shares in percent.
type SentimentStats struct {
	BullishPercent float64 `json:"bullishPercent"`
	BearishPercent float64 `json:"bearishPercent"`
}
