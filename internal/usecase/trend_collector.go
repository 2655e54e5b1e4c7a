package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	domsvc "TrendPulse/internal/domain/service"
	mid "TrendPulse/internal/middleware"
	"TrendPulse/internal/service/platform"
	"TrendPulse/pkg/logger"
	"TrendPulse/pkg/queue"
)

// TrendCollector pulls current trends from every platform, persists them
// through the ingest pipeline and returns the keyword analysis.
type TrendCollector struct {
	sources     []drepo.PlatformSource
	store       drepo.TrendStore
	pipe        *mid.IngestPipeline
	analyzer    domsvc.TrendAnalyzer
	broadcaster drepo.Broadcaster
	refresh     queue.Publisher
	metrics     drepo.Metrics
	log         *logger.Logger

	fetchTimeout time.Duration
	fallback     func(platform string, now time.Time) []models.RawTrend
	now          func() time.Time
}

type CollectorOption func(*TrendCollector)

// WithFetchTimeout bounds each platform fetch.
func WithFetchTimeout(d time.Duration) CollectorOption {
	return func(c *TrendCollector) { c.fetchTimeout = d }
}

func WithBroadcaster(b drepo.Broadcaster) CollectorOption {
	return func(c *TrendCollector) { c.broadcaster = b }
}

// WithRefreshQueue enqueues a forecast refresh after each cycle that stored trends.
func WithRefreshQueue(q queue.Publisher) CollectorOption {
	return func(c *TrendCollector) { c.refresh = q }
}

func WithCollectorClock(now func() time.Time) CollectorOption {
	return func(c *TrendCollector) { c.now = now }
}

func NewTrendCollector(
	sources []drepo.PlatformSource,
	store drepo.TrendStore,
	pipe *mid.IngestPipeline,
	analyzer domsvc.TrendAnalyzer,
	metrics drepo.Metrics,
	lgr *logger.Logger,
	opts ...CollectorOption,
) *TrendCollector {
	c := &TrendCollector{
		sources:      sources,
		store:        store,
		pipe:         pipe,
		analyzer:     analyzer,
		metrics:      metrics,
		log:          lgr,
		fetchTimeout: 30 * time.Second,
		fallback:     platform.Fallback,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect runs one collection cycle.
func (c *TrendCollector) Collect(ctx context.Context) (models.TrendAnalysis, error) {
	start := time.Now()
	now := c.now().UTC()

	byPlatform := c.fetchAll(ctx, now)

	for _, src := range c.sources {
		if err := c.store.EnsurePlatform(ctx, src.Name()); err != nil {
			c.metrics.RecordError("ensure_platform")
			return models.TrendAnalysis{}, fmt.Errorf("collect trends: %w", err)
		}
	}

	var trends []models.Trend
	for _, src := range c.sources {
		for _, r := range byPlatform[src.Name()] {
			trends = append(trends, models.NewTrend(r, now))
		}
	}

	accepted, err := c.pipe.Process(ctx, trends)
	if err != nil {
		// the pipeline keeps the batch and retries it in the background
		c.log.Warn("trend batch buffered for retry", logger.Int("trends", len(accepted)), logger.Error(err))
	}

	perPlatform := make(map[string]int, len(c.sources))
	for _, t := range accepted {
		perPlatform[t.Platform]++
		if c.broadcaster != nil {
			c.broadcaster.Broadcast(models.TrendEvent{EventID: uuid.New(), Trend: t, ProducedAt: now})
		}
	}
	for name, n := range perPlatform {
		c.metrics.RecordTrendsCollected(name, n)
	}
	if c.refresh != nil && err == nil && len(accepted) > 0 {
		if err := c.refresh.Enqueue(ctx, JobForecastRefresh, ForecastRefresh{Trends: len(accepted), CollectedAt: now}); err != nil {
			c.metrics.RecordError("refresh_enqueue")
			c.log.Warn("forecast refresh not enqueued", logger.Error(err))
		}
	}

	analysis := c.analyzer.Analyze(byPlatform)
	c.metrics.RecordLatency("collect", time.Since(start).Seconds())
	c.log.Info("trends collected",
		logger.Int("fetched", len(trends)),
		logger.Int("accepted", len(accepted)),
		logger.Duration("took", time.Since(start)))
	return analysis, nil
}

// fetchAll queries every platform concurrently. A failing platform is
// replaced by its fallback data set so one outage never empties the cycle.
func (c *TrendCollector) fetchAll(ctx context.Context, now time.Time) map[string][]models.RawTrend {
	results := make([][]models.RawTrend, len(c.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range c.sources {
		i, src := i, src
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, c.fetchTimeout)
			defer cancel()

			trends, err := src.FetchTrends(fctx)
			if err != nil {
				c.metrics.RecordError("platform_fetch")
				c.log.Warn("platform fetch failed, using fallback data",
					logger.String("platform", src.Name()), logger.Error(err))
				trends = c.fallback(src.Name(), now)
			}
			results[i] = trends
			return nil
		})
	}
	_ = g.Wait()

	byPlatform := make(map[string][]models.RawTrend, len(c.sources))
	for i, src := range c.sources {
		byPlatform[src.Name()] = results[i]
	}
	return byPlatform
}

// Run collects once immediately and then every interval until ctx is done.
func (c *TrendCollector) Run(ctx context.Context, interval time.Duration) {
	c.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runOnce(ctx)
		}
	}
}

func (c *TrendCollector) runOnce(ctx context.Context) {
	if _, err := c.Collect(ctx); err != nil && ctx.Err() == nil {
		c.log.Error("scheduled collection failed", logger.Error(err))
	}
}
