package usecase

import (
	"context"
	"sync"
	"time"

	"MarketIntel/internal/domain/models"
	domrepo "MarketIntel/internal/domain/repository"
)

type fakeCandles struct {
	candles []models.Candle
	err     error

	mu    sync.Mutex
	calls int
	size  int
}

func (f *fakeCandles) GetCandles(_ context.Context, _ string, _ domrepo.Interval, outputSize int) ([]models.Candle, error) {
	f.mu.Lock()
	f.calls++
	f.size = outputSize
	f.mu.Unlock()
	return f.candles, f.err
}

type fakeQuotes struct {
	quotes map[string]models.Quote
	err    error
	asked  []string
}

func (f *fakeQuotes) GetQuotes(_ context.Context, symbols []string) (map[string]models.Quote, error) {
	f.asked = symbols
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]models.Quote{}
	for _, s := range symbols {
		if q, ok := f.quotes[s]; ok {
			out[s] = q
		}
	}
	return out, nil
}

type fakeNews struct {
	items    []models.NewsItem
	err      error
	from, to time.Time
}

func (f *fakeNews) GetNews(_ context.Context, _ string, from, to time.Time) ([]models.NewsItem, error) {
	f.from, f.to = from, to
	return f.items, f.err
}

type fakeSentiment struct {
	stats *models.SentimentStats
	err   error
}

func (f *fakeSentiment) GetSentiment(context.Context, string) (*models.SentimentStats, error) {
	return f.stats, f.err
}

type fakePositions struct {
	positions []models.Position
	err       error
}

func (f *fakePositions) GetPositions(context.Context, string) ([]models.Position, error) {
	return f.positions, f.err
}

type fakeEvents struct {
	mu     sync.Mutex
	events []*models.AnalyticsEvent
	err    error
}

func (f *fakeEvents) PublishEvent(_ context.Context, ev *models.AnalyticsEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEvents) Close() error { return nil }

func (f *fakeEvents) kinds() []models.EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.EventKind, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Kind)
	}
	return out
}

type fakeMetrics struct {
	mu           sync.Mutex
	computations map[string]int
	errors       map[string]int
	lastPrice    map[string]float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		computations: map[string]int{},
		errors:       map[string]int{},
		lastPrice:    map[string]float64{},
	}
}

func (m *fakeMetrics) RecordComputation(module string) {
	m.mu.Lock()
	m.computations[module]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordLastPrice(symbol string, price float64) {
	m.mu.Lock()
	m.lastPrice[symbol] = price
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

// risingCandles returns n newest-first candles with closes n+99 down to 100.
func risingCandles(n int) []models.Candle {
	out := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		c := float64(100 + n - 1 - i)
		out[i] = models.Candle{Open: c - 0.5, High: c + 1, Low: c - 1, Close: c, Volume: "1000"}
	}
	return out
}
