package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TrendPulse/internal/domain/models"
	"TrendPulse/pkg/cache"
	"TrendPulse/pkg/logger"
	"TrendPulse/pkg/queue"
)

const JobForecastRefresh = "forecast.refresh"

// ForecastRefresh is enqueued after every collection that stored trends.
type ForecastRefresh struct {
	Trends      int       `json:"trends"`
	CollectedAt time.Time `json:"collected_at"`
}

type forecaster interface {
	Predict(ctx context.Context, days int) (*models.ForecastResponse, error)
}

// ForecastRefreshJob drops cached forecasts once new trends land and
// recomputes the default horizon so the next request is served warm.
type ForecastRefreshJob struct {
	predictor forecaster
	cache     cache.Service
	days      int
	ttl       time.Duration
	log       *logger.Logger
}

func NewForecastRefreshJob(predictor forecaster, c cache.Service, days int, ttl time.Duration, lgr *logger.Logger) *ForecastRefreshJob {
	return &ForecastRefreshJob{predictor: predictor, cache: c, days: days, ttl: ttl, log: lgr}
}

func (j *ForecastRefreshJob) Type() string { return JobForecastRefresh }

func (j *ForecastRefreshJob) Handle(ctx context.Context, payload json.RawMessage) error {
	ev, err := queue.Decode[ForecastRefresh](payload)
	if err != nil {
		return err
	}

	if err := j.cache.DeleteByPattern(ctx, cache.BuildPattern("predictions:")); err != nil {
		return fmt.Errorf("invalidate forecasts: %w", err)
	}

	resp, err := j.predictor.Predict(ctx, j.days)
	if err != nil {
		return fmt.Errorf("refresh forecast: %w", err)
	}
	if err := j.cache.Set(ctx, cache.GenerateKeyWithParams("predictions", j.days), resp, j.ttl); err != nil {
		j.log.Warn("forecast cache warm failed", logger.Error(err))
	}

	j.log.Info("forecast refreshed",
		logger.Int("new_trends", ev.Trends),
		logger.Int("topics", len(resp.Predictions)))
	return nil
}

var _ queue.Job = (*ForecastRefreshJob)(nil)
