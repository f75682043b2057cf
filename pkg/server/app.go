package server

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MarketIntel/internal/service/ratelimit"
	"MarketIntel/internal/usecase"
	xhttp "MarketIntel/pkg/http"
	pkgkafka "MarketIntel/pkg/kafka"
	applogger "MarketIntel/pkg/logger"
)

type namedCloser struct {
	name string
	c    io.Closer
}

// App encapsulates the entire application lifecycle. Every component except
// the HTTP server is optional.
type App struct {
	log        *applogger.Logger
	httpServer *xhttp.Server
	collector  *usecase.QuoteCollector
	consumer   *pkgkafka.Consumer
	handlers   []pkgkafka.MessageHandler
	watcher    *usecase.ArbitrageWatcher
	limiter    *ratelimit.Limiter
	sweepEvery time.Duration
	shutdownTO time.Duration
	closers    []namedCloser

	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures App.
type Option func(*App)

func WithCollector(c *usecase.QuoteCollector) Option {
	return func(a *App) { a.collector = c }
}

// WithConsumer registers handlers on the consumer before it starts.
func WithConsumer(c *pkgkafka.Consumer, handlers ...pkgkafka.MessageHandler) Option {
	return func(a *App) {
		a.consumer = c
		a.handlers = append(a.handlers, handlers...)
	}
}

func WithWatcher(w *usecase.ArbitrageWatcher) Option {
	return func(a *App) { a.watcher = w }
}

// WithLimiterSweep drops idle rate limit buckets every interval.
func WithLimiterSweep(l *ratelimit.Limiter, every time.Duration) Option {
	return func(a *App) {
		a.limiter = l
		a.sweepEvery = every
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.shutdownTO = d
		}
	}
}

// WithCloser adds a resource closed last, in registration order.
func WithCloser(name string, c io.Closer) Option {
	return func(a *App) {
		if c != nil {
			a.closers = append(a.closers, namedCloser{name: name, c: c})
		}
	}
}

// New creates a new App instance with all dependencies.
func New(log *applogger.Logger, httpServer *xhttp.Server, opts ...Option) *App {
	if log == nil {
		log = applogger.Nop()
	}
	a := &App{
		log:        log,
		httpServer: httpServer,
		shutdownTO: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		a.log.Error("app start failed", applogger.Error(err))
		_ = a.Shutdown(context.Background())
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTO)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Start launches every configured component. Background loops stop when
// Shutdown is called or ctx ends.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)
	a.done = make(chan struct{})

	if a.collector != nil {
		if err := a.collector.Start(ctx); err != nil {
			return err
		}
		a.log.Info("quote collector started")
	}

	if a.consumer != nil && len(a.handlers) > 0 {
		topics := make([]string, 0, len(a.handlers))
		for _, h := range a.handlers {
			a.consumer.RegisterHandler(h)
			topics = append(topics, h.Topic())
		}
		if err := a.consumer.Start(); err != nil {
			return err
		}
		a.log.Info("kafka consumer started", applogger.Strings("topics", topics))
	}

	if a.watcher != nil {
		a.watcher.Start()
	}

	go a.sweep(ctx)

	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) sweep(ctx context.Context) {
	defer close(a.done)
	if a.limiter == nil || a.sweepEvery <= 0 {
		<-ctx.Done()
		return
	}
	t := time.NewTicker(a.sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.limiter.Sweep(); n > 0 {
				a.log.Debug("rate limit buckets swept", applogger.Int("removed", n))
			}
		}
	}
}

// Shutdown gracefully stops all services: intake first, then the HTTP
// server, then shared resources.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down...")
	if a.cancel != nil {
		a.cancel()
		<-a.done
	}

	var errs []error
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.log.Warn("collector stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	for _, nc := range a.closers {
		if err := nc.c.Close(); err != nil {
			a.log.Warn(nc.name+" close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
