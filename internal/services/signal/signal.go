// Package signal turns moving averages and RSI into a discrete trade signal.
package signal

import (
	"strings"

	"MarketIntel/internal/domain/models"
	"MarketIntel/internal/services/indicators"
)

const (
	ShortPeriod = 20
	LongPeriod  = 50

	// CandleWindow is the number of newest candles echoed back with a signal.
	CandleWindow = 50

	CrossStrength   = 0.7
	ExtremeStrength = 0.8
	OversoldLevel   = 30.0
	OverboughtLevel = 70.0

	reasonNone      = "No clear signal"
	reasonConflict  = "Conflicting signals"
	reasonSeparator = "; "
)

// Inputs are the values the rule set is evaluated on.
type Inputs struct {
	Price float64
	SMA20 float64
	SMA50 float64
	RSI14 float64
}

type candidate struct {
	action   models.Action
	strength float64
	reason   string
}

type rule func(Inputs) (candidate, bool)

var rules = []rule{
	func(in Inputs) (candidate, bool) {
		return candidate{models.ActionBuy, CrossStrength, "Golden cross: SMA20 above SMA50 and price above SMA20"},
			in.SMA20 > in.SMA50 && in.Price > in.SMA20
	},
	func(in Inputs) (candidate, bool) {
		return candidate{models.ActionSell, CrossStrength, "Death cross: SMA20 below SMA50 and price below SMA20"},
			in.SMA20 < in.SMA50 && in.Price < in.SMA20
	},
	func(in Inputs) (candidate, bool) {
		return candidate{models.ActionBuy, ExtremeStrength, "RSI oversold"}, in.RSI14 < OversoldLevel
	},
	func(in Inputs) (candidate, bool) {
		return candidate{models.ActionSell, ExtremeStrength, "RSI overbought"}, in.RSI14 > OverboughtLevel
	},
}

// Evaluate runs every rule and aggregates the matches by majority.
func Evaluate(in Inputs) models.TradeSignal {
	var buys, sells []candidate
	for _, r := range rules {
		c, ok := r(in)
		if !ok {
			continue
		}
		if c.action == models.ActionBuy {
			buys = append(buys, c)
		} else {
			sells = append(sells, c)
		}
	}

	switch {
	case len(buys) == 0 && len(sells) == 0:
		return models.TradeSignal{Action: models.ActionHold, Reason: reasonNone}
	case len(buys) > len(sells):
		return combine(models.ActionBuy, buys)
	case len(sells) > len(buys):
		return combine(models.ActionSell, sells)
	default:
		return models.TradeSignal{Action: models.ActionHold, Reason: reasonConflict}
	}
}

func combine(action models.Action, cs []candidate) models.TradeSignal {
	total := 0.0
	reasons := make([]string, 0, len(cs))
	for _, c := range cs {
		total += c.strength
		reasons = append(reasons, c.reason)
	}
	return models.TradeSignal{
		Action:   action,
		Strength: total / float64(len(cs)),
		Reason:   strings.Join(reasons, reasonSeparator),
	}
}

// Analyze computes indicators from newest-first candles and evaluates them.
func Analyze(symbol, interval string, candles []models.Candle) (*models.SignalAnalysis, error) {
	if len(candles) == 0 {
		return nil, models.NewDataInsufficient("signal candles", 1, 0)
	}
	closes := models.Closes(candles)
	in := Inputs{
		Price: closes[0],
		SMA20: indicators.MovingAverage(closes, ShortPeriod),
		SMA50: indicators.MovingAverage(closes, LongPeriod),
		RSI14: indicators.RelativeStrengthIndex(closes, indicators.DefaultRSIPeriod),
	}

	window := candles
	if len(window) > CandleWindow {
		window = window[:CandleWindow]
	}

	return &models.SignalAnalysis{
		Symbol:       symbol,
		Interval:     interval,
		CurrentPrice: in.Price,
		Indicators: models.Indicators{
			SMA20:      in.SMA20,
			SMA50:      in.SMA50,
			RSI14:      in.RSI14,
			Volatility: indicators.SimpleVolatility(closes),
		},
		Signal:  Evaluate(in),
		Candles: window,
	}, nil
}
