package repository

import (
	"context"
	"time"

	"MarketIntel/internal/domain/models"
)

// CandleSource returns candles newest-first.
type CandleSource interface {
	GetCandles(ctx context.Context, symbol string, interval Interval, outputSize int) ([]models.Candle, error)
}

// QuoteSource returns the latest quote per requested symbol.
type QuoteSource interface {
	GetQuotes(ctx context.Context, symbols []string) (map[string]models.Quote, error)
}

type NewsSource interface {
	GetNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsItem, error)
}

// SentimentSource provides optional bullish/bearish percentages. A nil
// result with nil error means the provider has no data for the symbol.
type SentimentSource interface {
	GetSentiment(ctx context.Context, symbol string) (*models.SentimentStats, error)
}

type PositionSource interface {
	GetPositions(ctx context.Context, account string) ([]models.Position, error)
}

// QuoteStream is a live trade feed.
type QuoteStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, ev *models.AnalyticsEvent) error
	Close() error
}

type TickPublisher interface {
	PublishTick(ctx context.Context, t *models.Tick) error
	PublishTicks(ctx context.Context, ticks []*models.Tick) error
}

// TickStore archives raw ticks.
type TickStore interface {
	StoreTicks(ctx context.Context, ticks []*models.Tick) error
}

type Metrics interface {
	RecordComputation(module string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
