package usecase

import (
	"context"
	"sync"

	"MarketIntel/internal/domain/models"
	drepo "MarketIntel/internal/domain/repository"
	mid "MarketIntel/internal/middleware"
	applogger "MarketIntel/pkg/logger"
)

// QuoteApplier folds a tick into the live quote book.
type QuoteApplier interface {
	Apply(t *models.Tick) bool
}

// QuoteCollector reads the live trade stream, keeps the quote book current
// and hands ticks to the pipeline for publishing/archiving.
type QuoteCollector struct {
	stream  drepo.QuoteStream
	book    QuoteApplier
	pipe    *mid.TickPipeline
	metrics drepo.Metrics
	l       *applogger.Logger

	wg sync.WaitGroup
}

// NewQuoteCollector creates a collector. pipe may be nil when ticks only
// feed the quote book.
func NewQuoteCollector(stream drepo.QuoteStream, book QuoteApplier, pipe *mid.TickPipeline, metrics drepo.Metrics) *QuoteCollector {
	return &QuoteCollector{stream: stream, book: book, pipe: pipe, metrics: metrics, l: applogger.Nop()}
}

// SetLogger injects a structured logger.
func (c *QuoteCollector) SetLogger(l *applogger.Logger) {
	if l != nil {
		c.l = l
	}
}

// IsConnected returns true if the quote stream is connected.
func (c *QuoteCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *QuoteCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	c.wg.Add(1)
	go c.run(ctx)
	return nil
}

// run consumes one connection at a time and reconnects when the read loop
// ends with an error.
func (c *QuoteCollector) run(ctx context.Context) {
	defer c.wg.Done()
	for {
		tickCh, errCh := c.stream.Read(ctx)
		err := c.consume(ctx, tickCh, errCh)
		if ctx.Err() != nil {
			return
		}
		c.metrics.RecordError("stream")
		c.l.Warn("quote stream interrupted", applogger.Error(err))

		for {
			rerr := c.stream.Reconnect(ctx)
			if rerr == nil {
				c.l.Info("quote stream reconnected")
				break
			}
			if ctx.Err() != nil {
				return
			}
			c.metrics.RecordError("stream_reconnect")
			c.l.Error("quote stream reconnect failed", applogger.Error(rerr))
		}
	}
}

// consume drains one connection until it ends. It returns the stream error,
// if any.
func (c *QuoteCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errCh:
			if ok && err != nil {
				return err
			}
			errCh = nil
		case t, ok := <-tickCh:
			if !ok {
				select {
				case err := <-errCh:
					return err
				default:
					return nil
				}
			}
			c.handle(ctx, t)
		}
	}
}

func (c *QuoteCollector) handle(ctx context.Context, t *models.Tick) {
	if err := mid.ValidateTick(t); err != nil {
		c.metrics.RecordError("stream_invalid_tick")
		return
	}
	if c.book.Apply(t) {
		c.metrics.RecordLastPrice(t.Symbol, t.Price)
	}
	if c.pipe != nil {
		if err := c.pipe.Process(ctx, t); err != nil {
			c.l.Debug("tick buffered for retry",
				applogger.String("symbol", t.Symbol),
				applogger.Error(err),
			)
		}
	}
}

// Shutdown stops the pipeline, closes the stream and waits for the read
// loop to exit. ctx passed to Start must already be cancelled for the wait
// to finish promptly.
func (c *QuoteCollector) Shutdown(ctx context.Context) error {
	err := c.stream.Close()
	done := make(chan struct{})
	go func() { c.wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return err
}
