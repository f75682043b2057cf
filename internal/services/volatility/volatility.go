// Package volatility estimates realized and range-based volatility from a
// newest-first candle series and classifies it into a regime.
package volatility

import (
	"math"

	"MarketIntel/internal/domain/models"
	"MarketIntel/internal/services/indicators"
)

const (
	// RangeWindow caps the bars used by the Parkinson and Garman-Klass estimators.
	RangeWindow = 20

	lowCutoff      = 0.2
	normalCutoff   = 0.4
	elevatedCutoff = 0.7

	fearMultiplier = 500.0
	fearCap        = 100.0

	defaultPeriodsPerYear = 105120
)

var periodsPerYear = map[string]float64{
	"1min":   525600,
	"5min":   105120,
	"15min":  35040,
	"30min":  17520,
	"45min":  11680,
	"1h":     8760,
	"2h":     4380,
	"4h":     2190,
	"1day":   365,
	"1week":  52,
	"1month": 12,
}

// PeriodsPerYear returns the annualization factor for interval.
// Unknown intervals use the 5min value.
func PeriodsPerYear(interval string) float64 {
	if v, ok := periodsPerYear[interval]; ok {
		return v
	}
	return defaultPeriodsPerYear
}

// Analyze computes the full volatility picture. It needs at least 2 candles.
func Analyze(symbol, interval string, candles []models.Candle) (*models.VolatilityAnalysis, error) {
	if len(candles) < 2 {
		return nil, models.NewDataInsufficient("volatility candles", 2, len(candles))
	}

	stdDev := indicators.SampleStdDev(indicators.LogReturns(models.Closes(candles)))
	annualized := stdDev * math.Sqrt(PeriodsPerYear(interval))

	return &models.VolatilityAnalysis{
		Symbol:                symbol,
		Interval:              interval,
		RealizedVol:           stdDev,
		RealizedVolAnnualized: annualized,
		ParkinsonVol:          Parkinson(candles),
		GarmanKlassVol:        GarmanKlass(candles),
		FearIndex:             FearIndex(annualized),
		Regime:                ClassifyRegime(annualized),
	}, nil
}

// Parkinson estimates volatility from the high/low range of the newest
// RangeWindow bars. Bars without a positive range are skipped.
func Parkinson(candles []models.Candle) float64 {
	sum, n := 0.0, 0
	for _, c := range newest(candles) {
		if c.High <= 0 || c.Low <= 0 {
			continue
		}
		hl := math.Log(c.High / c.Low)
		sum += hl * hl
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / (4 * float64(n) * math.Ln2))
}

// GarmanKlass estimates volatility from open, high, low and close of the
// newest RangeWindow bars. A negative variance is clamped to zero.
func GarmanKlass(candles []models.Candle) float64 {
	k := 2*math.Ln2 - 1
	sum, n := 0.0, 0
	for _, c := range newest(candles) {
		if c.High <= 0 || c.Low <= 0 || c.Open <= 0 || c.Close <= 0 {
			continue
		}
		hl := math.Log(c.High / c.Low)
		co := math.Log(c.Close / c.Open)
		sum += 0.5*hl*hl - k*co*co
		n++
	}
	if n == 0 || sum <= 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

// ClassifyRegime buckets an annualized volatility.
func ClassifyRegime(annualized float64) models.Regime {
	switch {
	case annualized < lowCutoff:
		return models.RegimeLow
	case annualized < normalCutoff:
		return models.RegimeNormal
	case annualized < elevatedCutoff:
		return models.RegimeElevated
	default:
		return models.RegimeExtreme
	}
}

// FearIndex maps annualized volatility onto [0,100].
func FearIndex(annualized float64) float64 {
	return math.Min(fearCap, annualized*fearMultiplier)
}

func newest(candles []models.Candle) []models.Candle {
	if len(candles) > RangeWindow {
		return candles[:RangeWindow]
	}
	return candles
}
