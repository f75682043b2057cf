package di

import (
	"context"
	"fmt"
	"os"
	"time"

	"MarketIntel/internal/domain/models"
	"MarketIntel/internal/domain/repository"
	"MarketIntel/internal/handler/api"
	mid "MarketIntel/internal/middleware"
	internalrepo "MarketIntel/internal/repository"
	"MarketIntel/internal/service/finnhub"
	"MarketIntel/internal/service/ratelimit"
	"MarketIntel/internal/service/twelvedata"
	"MarketIntel/internal/services/arbitrage"
	"MarketIntel/internal/services/sentiment"
	"MarketIntel/internal/usecase"
	"MarketIntel/pkg/cache"
	pkgch "MarketIntel/pkg/clickhouse"
	"MarketIntel/pkg/config"
	xhttp "MarketIntel/pkg/http"
	pkgkafka "MarketIntel/pkg/kafka"
	applogger "MarketIntel/pkg/logger"
	"MarketIntel/pkg/metrics"
	"MarketIntel/pkg/server"
)

// Optional infrastructure providers return nil when the section is disabled.

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: "marketintel",
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithPool(cfg.ClickHouse.MaxOpenConns, cfg.ClickHouse.MaxIdleConns, 0),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithCompression(cfg.ClickHouse.Compress),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, false),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := internalrepo.SchemaStatements(
		cfg.ClickHouse.Database,
		cfg.ClickHouse.CandleTable,
		cfg.ClickHouse.PositionTable,
		cfg.ClickHouse.TickTable,
	)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithDelivery(cfg.Kafka.RequiredAcks, cfg.Kafka.Producer.MaxAttempts, cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaPublisher wraps the producer for analytics events and ticks.
func ProvideKafkaPublisher(producer *pkgkafka.Producer, cfg *config.Config) *internalrepo.KafkaPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.EventsTopic, cfg.Kafka.TicksTopic)
}

// ProvideKafkaConsumer creates the tick consumer. Every instance keeps its
// own quote book, so the group id is made unique per host.
func ProvideKafkaConsumer(cfg *config.Config, log *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	groupID := cfg.Kafka.Consumer.GroupID
	if host, err := os.Hostname(); err == nil && host != "" {
		groupID += "-" + host
	}
	consumer, err := pkgkafka.NewConsumer(log,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(groupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFromLatest(cfg.Kafka.Consumer.FromLatest),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideCache creates the response cache for the configured backend.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	memory := func() *cache.MemoryCache {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize))
	}
	if cfg.Cache.Backend == "memory" {
		return memory(), nil
	}

	redis, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
		cache.WithRedisAuth(cfg.Cache.Redis.Password, cfg.Cache.Redis.DB),
		cache.WithRedisPool(cfg.Cache.Redis.PoolSize, 2),
		cache.WithRedisTimeouts(cfg.Cache.Redis.DialTimeout, cfg.Cache.Redis.ReadTimeout),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix+":"+cfg.Environment),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	if cfg.Cache.Backend == "layered" {
		return cache.NewLayeredCache(redis, cfg.Cache.MemoryMaxSize, 5*time.Second), nil
	}
	return redis, nil
}

func ProvideTwelveData(cfg *config.Config, log *applogger.Logger) *twelvedata.Client {
	c := twelvedata.New(twelvedata.Options{
		BaseURL:         cfg.TwelveData.BaseURL,
		APIKey:          cfg.TwelveData.APIKey,
		Timeout:         cfg.TwelveData.Timeout,
		RequestsPerSec:  cfg.TwelveData.RequestsPerSec,
		MaxRetryElapsed: cfg.TwelveData.MaxRetryElapsed,
	})
	c.SetLogger(log)
	return c
}

func ProvideFinnhubNews(cfg *config.Config, log *applogger.Logger) *finnhub.NewsClient {
	c := finnhub.NewNewsClient(finnhub.RESTOptions{
		BaseURL:         cfg.Finnhub.BaseURL,
		APIKey:          cfg.Finnhub.APIKey,
		Timeout:         cfg.Finnhub.Timeout,
		RequestsPerSec:  cfg.Finnhub.RequestsPerSec,
		MaxRetryElapsed: cfg.Finnhub.MaxRetryElapsed,
	})
	c.SetLogger(log)
	return c
}

// ProvideQuoteBook creates the live quote book when the stream or the tick
// consumer can feed it.
func ProvideQuoteBook(cfg *config.Config) *internalrepo.QuoteBook {
	if !cfg.Finnhub.Stream.Enabled && !(cfg.Kafka.Enabled && cfg.Kafka.Consumer.Enabled) {
		return nil
	}
	return internalrepo.NewQuoteBook(cfg.Analytics.QuoteMaxAge, cfg.Finnhub.Stream.Aliases)
}

// ProvideSources picks the collaborators behind each analytics input.
func ProvideSources(
	cfg *config.Config,
	log *applogger.Logger,
	td *twelvedata.Client,
	news *finnhub.NewsClient,
	book *internalrepo.QuoteBook,
	ch *pkgch.Client,
) usecase.Sources {
	src := usecase.Sources{
		Candles:   td,
		Quotes:    td,
		News:      news,
		Sentiment: news,
		Positions: positionsUnavailable{},
	}

	if book != nil {
		composite := internalrepo.NewCompositeQuoteSource(book, td)
		composite.SetLogger(log)
		src.Quotes = composite
	}

	if ch != nil {
		db := cfg.ClickHouse.Database
		positions := internalrepo.NewCHPositionStore(ch, db+"."+cfg.ClickHouse.PositionTable)
		positions.SetLogger(log)
		src.Positions = positions

		if cfg.Analytics.CandleSource == "clickhouse" {
			candles := internalrepo.NewCHCandleStore(ch, db+"."+cfg.ClickHouse.CandleTable)
			candles.SetLogger(log)
			src.Candles = candles
		}
	}
	return src
}

// positionsUnavailable answers risk requests when no position store is
// configured.
type positionsUnavailable struct{}

func (positionsUnavailable) GetPositions(context.Context, string) ([]models.Position, error) {
	return nil, &models.UpstreamError{Provider: "positions", Message: "no position store configured"}
}

func ProvideScanner(cfg *config.Config) *arbitrage.Scanner {
	return arbitrage.NewScanner(arbitrage.Config{
		MinSpreadPct:    cfg.Arbitrage.MinSpreadPct,
		TopN:            cfg.Arbitrage.TopN,
		TradeSizeUSD:    cfg.Arbitrage.TradeSizeUSD,
		GasUnitsPerSwap: cfg.Arbitrage.GasUnitsPerSwap,
		SwapsPerRoute:   cfg.Arbitrage.SwapsPerRoute,
		NativeAssetUSD:  cfg.Arbitrage.NativeAssetUSD,
	})
}

func ProvideSentimentAnalyzer(cfg *config.Config) *sentiment.Analyzer {
	sc := sentiment.DefaultConfig()
	sc.MaxArticles = cfg.Analytics.MaxArticles
	return sentiment.NewAnalyzer(sc)
}

// ProvideMarketAnalytics creates the analytics use case.
func ProvideMarketAnalytics(
	cfg *config.Config,
	log *applogger.Logger,
	src usecase.Sources,
	scanner *arbitrage.Scanner,
	analyzer *sentiment.Analyzer,
	pub *internalrepo.KafkaPublisher,
	m repository.Metrics,
) *usecase.MarketAnalytics {
	var events repository.EventPublisher
	if pub != nil {
		events = pub
	}
	uc := usecase.NewMarketAnalytics(src, scanner, analyzer, events, m, usecase.AnalyticsConfig{
		CandleOutputSize: cfg.Analytics.CandleOutputSize,
		NewsWindow:       cfg.Analytics.NewsWindow,
		OverviewTimeout:  cfg.Analytics.Timeout,
	})
	uc.SetLogger(log)
	return uc
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.RequestsPerSec, cfg.RateLimit.Burst, 10*time.Minute)
}

func ProvideAnalyticsHandler(
	cfg *config.Config,
	log *applogger.Logger,
	uc *usecase.MarketAnalytics,
	c cache.Service,
	rl *ratelimit.Limiter,
) *api.AnalyticsEchoHandler {
	ttl := cfg.Cache.TTL
	h := api.NewAnalyticsEchoHandler(uc, c, api.TTLs{
		Signal:     ttl.Signal,
		Volatility: ttl.Volatility,
		Arbitrage:  ttl.Arbitrage,
		Sentiment:  ttl.Sentiment,
		Risk:       ttl.Risk,
		Overview:   ttl.Overview,
	}, rl)
	h.SetLogger(log)
	return h
}

// ProvideHTTPServer builds the API server. Remote stores in use back the
// /readyz probe.
func ProvideHTTPServer(cfg *config.Config, log *applogger.Logger, h *api.AnalyticsEchoHandler, c cache.Service, ch *pkgch.Client) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS, cfg.Server.CORSOrigins...),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.SlowThreshold),
	}
	if p, ok := c.(cache.Pinger); ok {
		opts = append(opts, xhttp.WithReadiness("redis", p.Ping))
	}
	if ch != nil {
		opts = append(opts, xhttp.WithReadiness("clickhouse", ch.Health))
	}
	return xhttp.NewServer(h, log, opts...)
}

// ProvideQuoteCollector builds stream -> quote book -> pipeline -> sinks.
func ProvideQuoteCollector(
	cfg *config.Config,
	log *applogger.Logger,
	book *internalrepo.QuoteBook,
	pub *internalrepo.KafkaPublisher,
	ch *pkgch.Client,
	m repository.Metrics,
) *usecase.QuoteCollector {
	sc := cfg.Finnhub.Stream
	if !sc.Enabled || book == nil {
		return nil
	}
	stream := finnhub.NewStream(cfg.Finnhub.APIKey, sc.WebSocketURL, sc.Symbols, sc.ReconnectDelay, sc.PingInterval)
	stream.SetLogger(log)

	var (
		ticks repository.TickPublisher
		store repository.TickStore
	)
	if pub != nil {
		ticks = pub
	}
	if sc.ArchiveTicks && ch != nil {
		store = internalrepo.NewCHTickStore(ch, cfg.ClickHouse.Database+"."+cfg.ClickHouse.TickTable, "finnhub")
	}

	var pipe *mid.TickPipeline
	if proc := usecase.NewTickProcessor(ticks, store, m); proc.Enabled() {
		pipe = mid.NewTickPipeline(proc, m,
			mid.WithMaxRPS(sc.MaxTicksPerSec),
			mid.WithBufferSize(sc.BufferSize),
		)
	}

	c := usecase.NewQuoteCollector(stream, book, pipe, m)
	c.SetLogger(log)
	return c
}

func ProvideQuoteTicksHandler(cfg *config.Config, book *internalrepo.QuoteBook, m repository.Metrics) *usecase.QuoteTicksHandler {
	if book == nil {
		return nil
	}
	return usecase.NewQuoteTicksHandler(cfg.Kafka.TicksTopic, book, m)
}

// ProvideArbitrageWatcher schedules the configured arbitrage scans.
func ProvideArbitrageWatcher(
	cfg *config.Config,
	log *applogger.Logger,
	uc *usecase.MarketAnalytics,
	c cache.Service,
	pub *internalrepo.KafkaPublisher,
	m repository.Metrics,
) (*usecase.ArbitrageWatcher, error) {
	wc := cfg.Arbitrage.Watch
	if !wc.Enabled {
		return nil, nil
	}
	var events repository.EventPublisher
	if pub != nil {
		events = pub
	}
	w, err := usecase.NewArbitrageWatcher(uc, c, events, m, usecase.WatchConfig{
		Schedule:       wc.Schedule,
		Groups:         usecase.ParseGroups(wc.Groups),
		AlertSpreadPct: wc.AlertSpreadPct,
		ScanTimeout:    cfg.Analytics.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("arbitrage watcher: %w", err)
	}
	w.SetLogger(log)
	return w, nil
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	collector *usecase.QuoteCollector,
	consumer *pkgkafka.Consumer,
	ticksHandler *usecase.QuoteTicksHandler,
	watcher *usecase.ArbitrageWatcher,
	rl *ratelimit.Limiter,
	c cache.Service,
	pub *internalrepo.KafkaPublisher,
	ch *pkgch.Client,
) *server.App {
	opts := []server.Option{
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		server.WithCloser("cache", c),
	}
	if collector != nil {
		opts = append(opts, server.WithCollector(collector))
	}
	if consumer != nil && ticksHandler != nil {
		opts = append(opts, server.WithConsumer(consumer, ticksHandler))
	}
	if watcher != nil {
		opts = append(opts, server.WithWatcher(watcher))
	}
	if rl != nil {
		opts = append(opts, server.WithLimiterSweep(rl, time.Minute))
	}
	if pub != nil {
		opts = append(opts, server.WithCloser("kafka producer", pub))
	}
	if ch != nil {
		opts = append(opts, server.WithCloser("clickhouse", ch))
	}
	return server.New(log, httpServer, opts...)
}
