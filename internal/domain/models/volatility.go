package models

import "time"

// Regime is a volatility classification bucket.
type Regime string

const (
	RegimeLow      Regime = "LOW"
	RegimeNormal   Regime = "NORMAL"
	RegimeElevated Regime = "ELEVATED"
	RegimeExtreme  Regime = "EXTREME"
)

type VolatilityAnalysis struct {
	Symbol                string    `json:"symbol"`
	Interval              string    `json:"interval"`
	RealizedVol           float64   `json:"realizedVol"`
	RealizedVolAnnualized float64   `json:"realizedVolAnnualized"`
	ParkinsonVol          float64   `json:"parkinsonVol"`
	GarmanKlassVol        float64   `json:"garmanKlassVol"`
	FearIndex             float64   `json:"fearIndex"`
	Regime                Regime    `json:"regime"`
	GeneratedAt           time.Time `json:"generatedAt"`
}
