package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/services/analyzer"
	"TrendPulse/internal/services/forecast"
	"TrendPulse/pkg/logger"
	"TrendPulse/pkg/metrics"
)

func newPredictionService(t *testing.T, store *memStore, now time.Time) *PredictionService {
	t.Helper()
	f, err := forecast.New()
	require.NoError(t, err)
	s := NewPredictionService(store, analyzer.New(), f, metrics.Nop{}, logger.Nop(), 30)
	s.now = func() time.Time { return now }
	return s
}

func TestPredict_ForecastsAndPersists(t *testing.T) {
	day1 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{}
	store.add("Dance Challenge", 50, day1)
	latest := store.add("dance challenge", 150, day1.AddDate(0, 0, 1))
	store.add("AI Art", 300, day1)
	bad := store.add("Broken", -5, day1)
	store.add("Broken", 10, day1.AddDate(0, 0, 1))
	_ = bad

	now := time.Date(2024, 1, 10, 8, 30, 0, 0, time.UTC)
	resp, err := newPredictionService(t, store, now).Predict(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-10 08:30:00", resp.UpdatedAt)
	require.Contains(t, resp.Predictions, "dance challenge")
	assert.NotContains(t, resp.Predictions, "ai art")
	assert.NotContains(t, resp.Predictions, "broken")
	assert.Equal(t, []string{"broken"}, resp.Skipped)

	assert.Equal(t, []models.Prediction{
		{Date: "2024-01-03", PredictedViews: 110, Confidence: 59.55, UpperBound: 199, LowerBound: 21},
		{Date: "2024-01-04", PredictedViews: 140, Confidence: 53.93, UpperBound: 229, LowerBound: 51},
	}, resp.Predictions["dance challenge"])

	require.Len(t, store.predictions, 2)
	for _, p := range store.predictions {
		assert.Equal(t, latest.ID, p.TrendID)
		assert.Equal(t, now, p.PredictionDate)
	}
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), store.predictions[0].TargetDate)
	assert.Equal(t, 59.55, store.predictions[0].ConfidenceScore)
}

func TestPredict_HistoryWindow(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	store := &memStore{}
	store.add("old", 10, now.AddDate(0, 0, -40))
	store.add("old", 20, now.AddDate(0, 0, -39))

	resp, err := newPredictionService(t, store, now).Predict(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, resp.Predictions)
	assert.Empty(t, store.predictions)
}

func TestPredict_SaveFailure(t *testing.T) {
	day1 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{}
	store.add("x", 1, day1)
	store.add("x", 2, day1.AddDate(0, 0, 1))
	store.saveErr = errBoom

	_, err := newPredictionService(t, store, day1.AddDate(0, 0, 3)).Predict(context.Background(), 3)
	require.ErrorIs(t, err, errBoom)
}

func TestPredict_Cancelled(t *testing.T) {
	store := &memStore{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPredictionService(t, store, time.Now()).Predict(ctx, 7)
	require.ErrorIs(t, err, context.Canceled)
}
