package di

import (
	"context"
	"fmt"
	"time"

	drepo "TrendPulse/internal/domain/repository"
	"TrendPulse/internal/handler/api"
	mid "TrendPulse/internal/middleware"
	"TrendPulse/internal/repository"
	"TrendPulse/internal/service/platform"
	"TrendPulse/internal/service/ratelimit"
	"TrendPulse/internal/service/stream"
	"TrendPulse/internal/services/analyzer"
	"TrendPulse/internal/services/forecast"
	"TrendPulse/internal/services/recommender"
	"TrendPulse/internal/usecase"
	"TrendPulse/pkg/cache"
	pkgch "TrendPulse/pkg/clickhouse"
	"TrendPulse/pkg/config"
	xhttp "TrendPulse/pkg/http"
	pkgkafka "TrendPulse/pkg/kafka"
	"TrendPulse/pkg/logger"
	"TrendPulse/pkg/metrics"
	"TrendPulse/pkg/queue"
	"TrendPulse/pkg/server"
)

func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideTrendStore creates the ClickHouse store and its tables.
func ProvideTrendStore(client *pkgch.Client, lgr *logger.Logger) (*repository.ClickHouseTrendStore, error) {
	store := repository.NewClickHouseTrendStore(client.DB(), lgr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when no brokers are configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideTrendProcessor routes collected trends to ClickHouse or Kafka.
func ProvideTrendProcessor(
	cfg *config.Config,
	producer *pkgkafka.Producer,
	store *repository.ClickHouseTrendStore,
	m drepo.Metrics,
) *usecase.TrendProcessor {
	var pub drepo.TrendSink
	if producer != nil {
		pub = repository.NewKafkaTrendPublisher(producer, cfg.Kafka.Topic)
	}
	return usecase.NewTrendProcessor(pub, store, m, cfg.Backend.Type)
}

func ProvideIngestPipeline(cfg *config.Config, proc *usecase.TrendProcessor, m drepo.Metrics) *mid.IngestPipeline {
	opts := []mid.PipelineOption{mid.WithBufferSize(64)}
	if cfg.Collector.PlatformThrottle > 0 {
		opts = append(opts, mid.WithPlatformThrottle(cfg.Collector.PlatformThrottle))
	}
	return mid.NewIngestPipeline(proc, m, opts...)
}

func ProvidePlatformSources(cfg *config.Config) []drepo.PlatformSource {
	return []drepo.PlatformSource{
		platform.NewTikTok(cfg.Platforms.TikTok),
		platform.NewTwitter(cfg.Platforms.Twitter),
	}
}

func ProvideAnalyzer() *analyzer.Analyzer {
	return analyzer.New()
}

func ProvideForecaster(cfg *config.Config) (*forecast.Forecaster, error) {
	return forecast.New(
		forecast.WithLookbackWindow(cfg.Forecast.LookbackWindow),
		forecast.WithSmoothingFactor(cfg.Forecast.SmoothingFactor),
		forecast.WithWorkers(cfg.Forecast.Workers),
	)
}

func ProvideHub(lgr *logger.Logger) *stream.Hub {
	return stream.NewHub(lgr)
}

// ProvideRedisCache connects to Redis, or returns nil when Redis is disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCache layers memory over Redis when Redis is available.
func ProvideCache(cfg *config.Config, rc *cache.RedisCache) cache.Service {
	if rc != nil {
		return cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(cfg.Cache.MaxSize))
	}
	return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MaxSize))
}

func ProvidePredictionService(
	cfg *config.Config,
	store *repository.ClickHouseTrendStore,
	a *analyzer.Analyzer,
	f *forecast.Forecaster,
	m drepo.Metrics,
	lgr *logger.Logger,
) *usecase.PredictionService {
	return usecase.NewPredictionService(store, a, f, m, lgr, cfg.Forecast.HistoryDays)
}

func ProvideRecommendationService(store *repository.ClickHouseTrendStore, m drepo.Metrics, lgr *logger.Logger) *usecase.RecommendationService {
	return usecase.NewRecommendationService(store, recommender.New(), m, lgr)
}

// ProvideJobQueue runs forecast refresh jobs on Redis, or returns nil without Redis.
func ProvideJobQueue(
	cfg *config.Config,
	lgr *logger.Logger,
	rc *cache.RedisCache,
	c cache.Service,
	predictions *usecase.PredictionService,
) *queue.RedisQueue {
	if rc == nil {
		return nil
	}
	q := queue.NewRedisQueue(lgr, rc.Client(), queue.Config{Workers: 1, RetryLimit: 3, RetryDelay: 30 * time.Second},
		queue.WithKeyPrefix(cfg.Cache.Prefix+":queue"))
	q.Register(usecase.NewForecastRefreshJob(predictions, c, cfg.Forecast.HorizonDays, cfg.Cache.PredictionsTTL, lgr))
	return q
}

func ProvideTrendCollector(
	cfg *config.Config,
	sources []drepo.PlatformSource,
	store *repository.ClickHouseTrendStore,
	pipe *mid.IngestPipeline,
	a *analyzer.Analyzer,
	m drepo.Metrics,
	lgr *logger.Logger,
	hub *stream.Hub,
	jobs *queue.RedisQueue,
) *usecase.TrendCollector {
	opts := []usecase.CollectorOption{
		usecase.WithFetchTimeout(cfg.Collector.Timeout),
		usecase.WithBroadcaster(hub),
	}
	if jobs != nil {
		opts = append(opts, usecase.WithRefreshQueue(jobs))
	}
	return usecase.NewTrendCollector(sources, store, pipe, a, m, lgr, opts...)
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

func ProvideTrendsHandler(
	cfg *config.Config,
	lgr *logger.Logger,
	collector *usecase.TrendCollector,
	predictions *usecase.PredictionService,
	recs *usecase.RecommendationService,
	hub *stream.Hub,
	store *repository.ClickHouseTrendStore,
	rc *cache.RedisCache,
	c cache.Service,
	limiter *ratelimit.Limiter,
) *api.TrendsEchoHandler {
	opts := []api.HandlerOption{
		api.WithStream(hub),
		api.WithHealth(store),
		api.WithCache(c, api.CacheTTLs{
			Predictions:     cfg.Cache.PredictionsTTL,
			Recommendations: cfg.Cache.Recommendations,
		}),
	}
	if rc != nil {
		opts = append(opts, api.WithHealth(rc))
	}
	if limiter != nil {
		opts = append(opts, api.WithRateLimiter(limiter))
	}
	return api.NewTrendsEchoHandler(lgr, collector, predictions, recs, opts...)
}

func ProvideHTTPServer(cfg *config.Config, h *api.TrendsEchoHandler, lgr *logger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(lgr,
		xhttp.WithRoutes(h),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideKafkaConsumer creates the ingest consumer, or nil unless backend.type is kafka.
func ProvideKafkaConsumer(cfg *config.Config, lgr *logger.Logger) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != usecase.BackendKafka {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(lgr),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.LoggingHook{Log: lgr}))
	return consumer, nil
}

// ProvideKafkaTrendsHandler persists trends consumed from the trends topic.
func ProvideKafkaTrendsHandler(cfg *config.Config, store *repository.ClickHouseTrendStore, m drepo.Metrics) *usecase.KafkaTrendsHandler {
	return usecase.NewKafkaTrendsHandler(cfg.Kafka.Topic, store, m)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *logger.Logger,
	srv *xhttp.Server,
	collector *usecase.TrendCollector,
	pipe *mid.IngestPipeline,
	hub *stream.Hub,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTrendsHandler,
	jobs *queue.RedisQueue,
	producer *pkgkafka.Producer,
	c cache.Service,
	chClient *pkgch.Client,
) *server.App {
	opts := []server.Option{
		server.WithCloser("cache", c),
		server.WithCloser("clickhouse", chClient),
	}
	if consumer != nil {
		opts = append(opts, server.WithConsumer(consumer, kh))
	}
	if jobs != nil {
		opts = append(opts, server.WithJobQueue(jobs))
	}
	if producer != nil {
		opts = append(opts, server.WithCloser("kafka producer", producer))
		if cfg.Logging.Collector.Enabled {
			lgr.AddCollector(&logger.CollectionConfig{
				Service:        "trendpulse",
				TimeInterval:   cfg.Logging.Collector.FlushInterval,
				CountThreshold: cfg.Logging.Collector.CountThreshold,
				Topic:          cfg.Logging.Collector.Topic,
				Publisher:      producer,
			})
		}
	}
	return server.New(cfg, lgr, srv, collector, pipe, hub, opts...)
}
