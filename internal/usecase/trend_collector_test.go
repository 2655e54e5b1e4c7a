package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	mid "TrendPulse/internal/middleware"
	"TrendPulse/internal/services/analyzer"
	"TrendPulse/pkg/logger"
	"TrendPulse/pkg/metrics"
)

var collectNow = time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)

func newCollector(store *memStore, b drepo.Broadcaster, sources ...drepo.PlatformSource) *TrendCollector {
	pipe := mid.NewIngestPipeline(store, metrics.Nop{})
	return NewTrendCollector(sources, store, pipe, analyzer.New(), metrics.Nop{}, logger.Nop(),
		WithBroadcaster(b),
		WithCollectorClock(func() time.Time { return collectNow }),
		WithFetchTimeout(time.Second))
}

func TestCollect_PersistsAndAnalyzes(t *testing.T) {
	store := &memStore{}
	b := &recordingBroadcaster{}
	c := newCollector(store, b,
		stubSource{name: models.PlatformTikTok, trends: []models.RawTrend{
			{Text: "Dance Challenge", ViewCount: 1000, Platform: models.PlatformTikTok},
			{Text: "Dance Tutorial", ViewCount: 500, Platform: models.PlatformTikTok},
		}},
		stubSource{name: models.PlatformTwitter, trends: []models.RawTrend{
			{Text: "AI Art", ViewCount: 300, Platform: models.PlatformTwitter},
		}},
	)

	analysis, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{models.PlatformTikTok, models.PlatformTwitter}, store.platforms)
	require.Len(t, store.trends, 3)
	for _, tr := range store.trends {
		assert.Equal(t, collectNow, tr.CreatedAt)
	}
	assert.Len(t, b.events, 3)

	assert.Equal(t, map[string]int{"tiktok": 2, "twitter": 1}, analysis.PlatformComparison)
	require.NotEmpty(t, analysis.TopKeywords)
	assert.Equal(t, models.KeywordCount{Keyword: "dance", Frequency: 2}, analysis.TopKeywords[0])
}

func TestCollect_FallsBackPerPlatform(t *testing.T) {
	store := &memStore{}
	c := newCollector(store, nil,
		stubSource{name: models.PlatformTikTok, err: errBoom},
		stubSource{name: models.PlatformTwitter, trends: []models.RawTrend{
			{Text: "AI Art", ViewCount: 300, Platform: models.PlatformTwitter},
		}},
	)

	analysis, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, analysis.PlatformComparison["tiktok"], "fallback set has three records")
	assert.Equal(t, 1, analysis.PlatformComparison["twitter"])
	assert.Len(t, store.trends, 4)
}

func TestCollect_PlatformRegistrationFailure(t *testing.T) {
	store := &memStore{platformErr: errBoom}
	c := newCollector(store, nil, stubSource{name: models.PlatformTikTok})

	_, err := c.Collect(context.Background())
	require.ErrorIs(t, err, errBoom)
}

func TestCollect_StoreFailureIsBuffered(t *testing.T) {
	store := &memStore{saveErr: errBoom}
	b := &recordingBroadcaster{}
	c := newCollector(store, b, stubSource{name: models.PlatformTikTok, trends: []models.RawTrend{
		{Text: "Cooking Hacks", ViewCount: 10, Platform: models.PlatformTikTok},
	}})

	_, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, c.pipe.Buffered())
	assert.Len(t, b.events, 1)
}

func TestTrendProcessor_RoutesByBackend(t *testing.T) {
	direct := &memStore{}
	queued := &memStore{}
	trends := []models.Trend{{Text: "x", Platform: models.PlatformTikTok, CreatedAt: collectNow}}

	require.NoError(t, NewTrendProcessor(queued, direct, metrics.Nop{}, BackendClickHouse).Store(context.Background(), trends))
	assert.Len(t, direct.trends, 1)
	assert.Empty(t, queued.trends)

	require.NoError(t, NewTrendProcessor(queued, direct, metrics.Nop{}, BackendKafka).Store(context.Background(), trends))
	assert.Len(t, queued.trends, 1)

	err := NewTrendProcessor(queued, direct, metrics.Nop{}, "s3").Store(context.Background(), trends)
	assert.Error(t, err)
}
