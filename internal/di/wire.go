//go:build wireinject
// +build wireinject

package di

import (
	"MarketIntel/pkg/config"
	"MarketIntel/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// Data sources and sinks
		ProvideTwelveData,
		ProvideFinnhubNews,
		ProvideQuoteBook,
		ProvideKafkaPublisher,
		ProvideSources,

		// Use cases
		ProvideScanner,
		ProvideSentimentAnalyzer,
		ProvideMarketAnalytics,
		ProvideQuoteCollector,
		ProvideQuoteTicksHandler,
		ProvideArbitrageWatcher,

		// Transport
		ProvideRateLimiter,
		ProvideAnalyticsHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
