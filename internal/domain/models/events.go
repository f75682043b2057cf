package models

import (
	"encoding/json"
	"time"
)

// EventKind names the computation an AnalyticsEvent carries.
type EventKind string

const (
	EventSignal         EventKind = "signal"
	EventVolatility     EventKind = "volatility"
	EventArbitrage      EventKind = "arbitrage"
	EventArbitrageAlert EventKind = "arbitrage.alert"
	EventSentiment      EventKind = "sentiment"
	EventRisk           EventKind = "risk"
)

// AnalyticsEvent is the envelope published after a computation.
type AnalyticsEvent struct {
	ID        string          `json:"id"`
	Kind      EventKind       `json:"kind"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}
