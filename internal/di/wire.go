//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"TrendPulse/pkg/config"
	"TrendPulse/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideRedisCache,
		ProvideCache,

		// Repositories and services
		ProvideTrendStore,
		ProvidePlatformSources,
		ProvideAnalyzer,
		ProvideForecaster,
		ProvideHub,
		ProvideRateLimiter,

		// Use cases
		ProvideTrendProcessor,
		ProvideIngestPipeline,
		ProvidePredictionService,
		ProvideRecommendationService,
		ProvideJobQueue,
		ProvideTrendCollector,
		ProvideKafkaConsumer,
		ProvideKafkaTrendsHandler,

		// Transport and application
		ProvideTrendsHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
