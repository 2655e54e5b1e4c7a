package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	mid "TrendPulse/internal/middleware"
	"TrendPulse/internal/services/analyzer"
	"TrendPulse/pkg/cache"
	"TrendPulse/pkg/logger"
	"TrendPulse/pkg/metrics"
)

type countingPredictor struct {
	calls int
	days  int
	err   error
}

func (p *countingPredictor) Predict(_ context.Context, days int) (*models.ForecastResponse, error) {
	p.calls++
	p.days = days
	if p.err != nil {
		return nil, p.err
	}
	return &models.ForecastResponse{
		Predictions: models.Forecast{"dance": {{Date: "2024-06-02", PredictedViews: 10}}},
		UpdatedAt:   "2024-06-01T06:00:00Z",
	}, nil
}

func TestForecastRefreshJob_InvalidatesAndWarms(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer mem.Close()

	require.NoError(t, mem.Set(ctx, "predictions:3", "stale", time.Hour))
	require.NoError(t, mem.Set(ctx, "recommendations:dance", "kept", time.Hour))

	pred := &countingPredictor{}
	job := NewForecastRefreshJob(pred, mem, 7, time.Minute, logger.Nop())
	assert.Equal(t, JobForecastRefresh, job.Type())

	payload, _ := json.Marshal(ForecastRefresh{Trends: 6, CollectedAt: collectNow})
	require.NoError(t, job.Handle(ctx, payload))

	assert.Equal(t, 1, pred.calls)
	assert.Equal(t, 7, pred.days)

	stale, err := mem.Exists(ctx, "predictions:3")
	require.NoError(t, err)
	assert.False(t, stale)

	var warm models.ForecastResponse
	require.NoError(t, mem.Get(ctx, "predictions:7", &warm))
	assert.Contains(t, warm.Predictions, "dance")

	kept, err := mem.Exists(ctx, "recommendations:dance")
	require.NoError(t, err)
	assert.True(t, kept)
}

func TestForecastRefreshJob_PropagatesFailures(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer mem.Close()

	job := NewForecastRefreshJob(&countingPredictor{err: errBoom}, mem, 7, time.Minute, logger.Nop())

	assert.Error(t, job.Handle(ctx, json.RawMessage(`{"trends":`)))
	assert.ErrorIs(t, job.Handle(ctx, json.RawMessage(`{"trends":1}`)), errBoom)
}

func TestCollect_EnqueuesRefreshOnlyWhenStored(t *testing.T) {
	q := &recordingQueue{}
	src := stubSource{name: models.PlatformTikTok, trends: []models.RawTrend{
		{Text: "Dance Challenge", ViewCount: 1000, Platform: models.PlatformTikTok},
	}}

	store := &memStore{}
	pipe := mid.NewIngestPipeline(store, metrics.Nop{})
	c := NewTrendCollector([]drepo.PlatformSource{src}, store, pipe, analyzer.New(), metrics.Nop{}, logger.Nop(),
		WithRefreshQueue(q),
		WithCollectorClock(func() time.Time { return collectNow }))

	_, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, q.msgs, 1)
	assert.Equal(t, JobForecastRefresh, q.msgs[0].msgType)
	assert.Equal(t, ForecastRefresh{Trends: 1, CollectedAt: collectNow}, q.msgs[0].payload)

	failing := &memStore{saveErr: errBoom}
	pipe = mid.NewIngestPipeline(failing, metrics.Nop{})
	c = NewTrendCollector([]drepo.PlatformSource{src}, failing, pipe, analyzer.New(), metrics.Nop{}, logger.Nop(),
		WithRefreshQueue(q),
		WithCollectorClock(func() time.Time { return collectNow }))

	_, err = c.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, q.msgs, 1)
}
