package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketIntel/internal/domain/models"
	domrepo "MarketIntel/internal/domain/repository"
	"MarketIntel/internal/services/signal"
	"MarketIntel/internal/services/volatility"
)

// Overview runs signal, volatility and sentiment for one symbol
// concurrently. Signal and volatility share one candle fetch. A module that
// fails is reported in Errors; Overview itself only fails on bad input.
func (a *MarketAnalytics) Overview(ctx context.Context, symbol string, interval domrepo.Interval) (*models.MarketOverview, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.OverviewTimeout)
	defer cancel()

	res := &models.MarketOverview{
		Symbol:   symbol,
		Interval: string(interval),
		Errors:   map[string]string{},
	}

	type item struct {
		name string
		val  any
		err  error
	}
	ch := make(chan item, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		start := time.Now()
		candles, err := a.fetchCandles(ctx, symbol, interval)
		if err != nil {
			err = a.fail("overview", err)
			ch <- item{"signal", nil, err}
			ch <- item{"volatility", nil, err}
			return
		}
		key := symbol + ":" + string(interval)

		sig, err := signal.Analyze(symbol, string(interval), candles)
		if err == nil {
			sig.GeneratedAt = a.now().UTC()
			a.done(ctx, "signal", start, models.EventSignal, key, sig)
		}
		ch <- item{"signal", sig, err}

		vol, err := volatility.Analyze(symbol, string(interval), candles)
		if err == nil {
			vol.GeneratedAt = a.now().UTC()
			a.done(ctx, "volatility", start, models.EventVolatility, key, vol)
		}
		ch <- item{"volatility", vol, err}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := a.Sentiment(ctx, symbol)
		ch <- item{"sentiment", v, err}
	}()

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			res.Errors[it.name] = it.err.Error()
			continue
		}
		switch it.name {
		case "signal":
			res.Signal = it.val.(*models.SignalAnalysis)
		case "volatility":
			res.Volatility = it.val.(*models.VolatilityAnalysis)
		case "sentiment":
			res.Sentiment = it.val.(*models.SentimentAnalysis)
		}
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	res.GeneratedAt = a.now().UTC()
	return res, nil
}
