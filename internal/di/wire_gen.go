// InitializeApp below calls the wire.Build set from wire.go in dependency
// order. Running go generate replaces this file with wire's own output.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"TrendPulse/pkg/config"
	"TrendPulse/pkg/server"
)

// Injectors from wire.go:

// InitializeApp wires up all dependencies and returns the application.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	client, err := ProvideClickHouseClient(cfg)
	if err != nil {
		return nil, err
	}
	clickHouseTrendStore, err := ProvideTrendStore(client, logger)
	if err != nil {
		return nil, err
	}
	v := ProvidePlatformSources(cfg)
	producer, err := ProvideKafkaProducer(cfg)
	if err != nil {
		return nil, err
	}
	metrics := ProvideMetrics()
	trendProcessor := ProvideTrendProcessor(cfg, producer, clickHouseTrendStore, metrics)
	ingestPipeline := ProvideIngestPipeline(cfg, trendProcessor, metrics)
	analyzer := ProvideAnalyzer()
	hub := ProvideHub(logger)
	redisCache, err := ProvideRedisCache(cfg)
	if err != nil {
		return nil, err
	}
	service := ProvideCache(cfg, redisCache)
	forecaster, err := ProvideForecaster(cfg)
	if err != nil {
		return nil, err
	}
	predictionService := ProvidePredictionService(cfg, clickHouseTrendStore, analyzer, forecaster, metrics, logger)
	redisQueue := ProvideJobQueue(cfg, logger, redisCache, service, predictionService)
	trendCollector := ProvideTrendCollector(cfg, v, clickHouseTrendStore, ingestPipeline, analyzer, metrics, logger, hub, redisQueue)
	recommendationService := ProvideRecommendationService(clickHouseTrendStore, metrics, logger)
	limiter := ProvideRateLimiter(cfg)
	trendsEchoHandler := ProvideTrendsHandler(cfg, logger, trendCollector, predictionService, recommendationService, hub, clickHouseTrendStore, redisCache, service, limiter)
	httpServer := ProvideHTTPServer(cfg, trendsEchoHandler, logger)
	consumer, err := ProvideKafkaConsumer(cfg, logger)
	if err != nil {
		return nil, err
	}
	kafkaTrendsHandler := ProvideKafkaTrendsHandler(cfg, clickHouseTrendStore, metrics)
	app := ProvideApp(cfg, logger, httpServer, trendCollector, ingestPipeline, hub, consumer, kafkaTrendsHandler, redisQueue, producer, service, client)
	return app, nil
}
