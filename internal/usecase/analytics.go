package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"MarketIntel/internal/domain/models"
	domrepo "MarketIntel/internal/domain/repository"
	"MarketIntel/internal/services/arbitrage"
	"MarketIntel/internal/services/risk"
	"MarketIntel/internal/services/sentiment"
	"MarketIntel/internal/services/signal"
	"MarketIntel/internal/services/volatility"
	applogger "MarketIntel/pkg/logger"
	"MarketIntel/pkg/util"
)

// Sources groups the data collaborators the analytics read from.
// Sentiment is optional.
type Sources struct {
	Candles   domrepo.CandleSource
	Quotes    domrepo.QuoteSource
	News      domrepo.NewsSource
	Sentiment domrepo.SentimentSource
	Positions domrepo.PositionSource
}

type AnalyticsConfig struct {
	CandleOutputSize int
	NewsWindow       time.Duration
	OverviewTimeout  time.Duration
}

// MarketAnalytics fetches inputs for each module, runs the computation and
// publishes the result as an analytics event.
type MarketAnalytics struct {
	src      Sources
	scanner  *arbitrage.Scanner
	analyzer *sentiment.Analyzer
	events   domrepo.EventPublisher
	metrics  domrepo.Metrics
	cfg      AnalyticsConfig
	l        *applogger.Logger
	now      func() time.Time
}

// NewMarketAnalytics wires the use case. events may be nil when no broker
// is configured.
func NewMarketAnalytics(
	src Sources,
	scanner *arbitrage.Scanner,
	analyzer *sentiment.Analyzer,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	cfg AnalyticsConfig,
) *MarketAnalytics {
	if cfg.CandleOutputSize <= 0 {
		cfg.CandleOutputSize = 100
	}
	if cfg.NewsWindow <= 0 {
		cfg.NewsWindow = 7 * 24 * time.Hour
	}
	if cfg.OverviewTimeout <= 0 {
		cfg.OverviewTimeout = 10 * time.Second
	}
	return &MarketAnalytics{
		src:      src,
		scanner:  scanner,
		analyzer: analyzer,
		events:   events,
		metrics:  metrics,
		cfg:      cfg,
		l:        applogger.Nop(),
		now:      time.Now,
	}
}

// SetLogger injects a structured logger.
func (a *MarketAnalytics) SetLogger(l *applogger.Logger) {
	if l != nil {
		a.l = l
	}
}

func (a *MarketAnalytics) Signal(ctx context.Context, symbol string, interval domrepo.Interval) (*models.SignalAnalysis, error) {
	start := time.Now()
	candles, err := a.fetchCandles(ctx, symbol, interval)
	if err != nil {
		return nil, a.fail("signal", err)
	}
	res, err := signal.Analyze(symbol, string(interval), candles)
	if err != nil {
		return nil, a.fail("signal", err)
	}
	res.GeneratedAt = a.now().UTC()
	a.done(ctx, "signal", start, models.EventSignal, symbol+":"+string(interval), res)
	return res, nil
}

func (a *MarketAnalytics) Volatility(ctx context.Context, symbol string, interval domrepo.Interval) (*models.VolatilityAnalysis, error) {
	start := time.Now()
	candles, err := a.fetchCandles(ctx, symbol, interval)
	if err != nil {
		return nil, a.fail("volatility", err)
	}
	res, err := volatility.Analyze(symbol, string(interval), candles)
	if err != nil {
		return nil, a.fail("volatility", err)
	}
	res.GeneratedAt = a.now().UTC()
	a.done(ctx, "volatility", start, models.EventVolatility, symbol+":"+string(interval), res)
	return res, nil
}

// Arbitrage scans the quotes of symbols. Symbols without a quote are left
// out; pair order follows the order of symbols.
func (a *MarketAnalytics) Arbitrage(ctx context.Context, symbols []string, gasPriceGwei *float64) (*models.ArbitrageAnalysis, error) {
	start := time.Now()
	quotes, err := a.src.Quotes.GetQuotes(ctx, symbols)
	if err != nil {
		return nil, a.fail("arbitrage", fmt.Errorf("fetch quotes: %w", err))
	}
	ordered := make([]models.Quote, 0, len(quotes))
	seen := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		if q, ok := quotes[sym]; ok {
			ordered = append(ordered, q)
		}
	}
	res, err := a.scanner.Analyze(ordered, gasPriceGwei)
	if err != nil {
		return nil, a.fail("arbitrage", err)
	}
	res.GeneratedAt = a.now().UTC()
	a.done(ctx, "arbitrage", start, models.EventArbitrage, strings.Join(symbols, ","), res)
	return res, nil
}

// Sentiment scores the news of the trailing window. The bullish/bearish
// stats are optional and a failure to fetch them only drops them.
func (a *MarketAnalytics) Sentiment(ctx context.Context, symbol string) (*models.SentimentAnalysis, error) {
	start := time.Now()
	from, to := util.NewsWindow(a.now(), a.cfg.NewsWindow)
	items, err := a.src.News.GetNews(ctx, symbol, from, to)
	if err != nil {
		return nil, a.fail("sentiment", fmt.Errorf("fetch news: %w", err))
	}

	var stats *models.SentimentStats
	if a.src.Sentiment != nil {
		stats, err = a.src.Sentiment.GetSentiment(ctx, symbol)
		if err != nil {
			a.metrics.RecordError("sentiment_stats")
			a.l.Warn("analytics.sentiment stats unavailable",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
			stats = nil
		}
	}

	res := a.analyzer.Analyze(symbol, items, stats)
	res.GeneratedAt = a.now().UTC()
	a.done(ctx, "sentiment", start, models.EventSentiment, symbol, res)
	return res, nil
}

func (a *MarketAnalytics) Risk(ctx context.Context, account string) (*models.RiskAnalysis, error) {
	start := time.Now()
	positions, err := a.src.Positions.GetPositions(ctx, account)
	if err != nil {
		return nil, a.fail("risk", fmt.Errorf("fetch positions: %w", err))
	}

	quotes := map[string]models.Quote{}
	if symbols := positionSymbols(positions); len(symbols) > 0 {
		quotes, err = a.src.Quotes.GetQuotes(ctx, symbols)
		if err != nil {
			return nil, a.fail("risk", fmt.Errorf("fetch quotes: %w", err))
		}
	}

	res, err := risk.Assess(account, positions, quotes)
	if err != nil {
		return nil, a.fail("risk", err)
	}
	res.GeneratedAt = a.now().UTC()
	a.done(ctx, "risk", start, models.EventRisk, account, res)
	return res, nil
}

func (a *MarketAnalytics) fetchCandles(ctx context.Context, symbol string, interval domrepo.Interval) ([]models.Candle, error) {
	candles, err := a.src.Candles.GetCandles(ctx, symbol, interval, a.cfg.CandleOutputSize)
	if err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}
	return candles, nil
}

func (a *MarketAnalytics) fail(module string, err error) error {
	a.metrics.RecordError(module)
	a.l.Warn("analytics."+module+" failed", applogger.Error(err))
	return err
}

func (a *MarketAnalytics) done(ctx context.Context, module string, start time.Time, kind models.EventKind, key string, payload any) {
	elapsed := time.Since(start)
	a.metrics.RecordComputation(module)
	a.metrics.RecordLatency(module, elapsed.Seconds())
	a.l.Debug("analytics."+module+" ok",
		applogger.String("key", key),
		applogger.Duration("elapsed", elapsed),
	)
	a.publish(ctx, kind, key, payload)
}

// publish is best effort: failures are logged and counted only.
func (a *MarketAnalytics) publish(ctx context.Context, kind models.EventKind, key string, payload any) {
	if a.events == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		a.metrics.RecordError("event_encode")
		return
	}
	ev := &models.AnalyticsEvent{Kind: kind, Key: key, Payload: b, Timestamp: a.now().UTC()}
	if err := a.events.PublishEvent(ctx, ev); err != nil {
		a.metrics.RecordError("event_publish")
		a.l.Warn("analytics event publish failed",
			applogger.String("kind", string(kind)),
			applogger.String("key", key),
			applogger.Error(err),
		)
	}
}

func positionSymbols(positions []models.Position) []string {
	seen := make(map[string]struct{}, len(positions))
	out := make([]string, 0, len(positions))
	for _, p := range positions {
		if _, ok := seen[p.Symbol]; ok {
			continue
		}
		seen[p.Symbol] = struct{}{}
		out = append(out, p.Symbol)
	}
	sort.Strings(out)
	return out
}

