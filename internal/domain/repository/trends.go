package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"TrendPulse/internal/domain/models"
)

// PlatformSource fetches the current trends of one social platform.
type PlatformSource interface {
	Name() string
	FetchTrends(ctx context.Context) ([]models.RawTrend, error)
}

// TrendStore persists trends and serves the history window used for forecasting.
type TrendStore interface {
	Init(ctx context.Context) error
	EnsurePlatform(ctx context.Context, name string) error
	SaveTrends(ctx context.Context, trends []models.Trend) error
	// History returns trends created at or after since, oldest first.
	History(ctx context.Context, since time.Time) ([]models.Trend, error)
	// LatestTrendID resolves a topic to the most recent trend whose text
	// matches case-insensitively. ok is false when nothing matches.
	LatestTrendID(ctx context.Context, topic string) (id uuid.UUID, ok bool, err error)
	// LatestTrend returns the most recently created trend, or nil.
	LatestTrend(ctx context.Context) (*models.Trend, error)
	Health(ctx context.Context) error
	Close() error
}

type PredictionStore interface {
	SavePredictions(ctx context.Context, predictions []models.PredictionRecord) error
}

type ContentStore interface {
	SaveContents(ctx context.Context, contents []models.ContentRecord) error
}

// TrendSink is where collected trends go: straight into storage or onto Kafka.
type TrendSink interface {
	Store(ctx context.Context, trends []models.Trend) error
}

// Broadcaster pushes freshly collected trends to live subscribers.
type Broadcaster interface {
	Broadcast(event models.TrendEvent)
}

type Metrics interface {
	RecordTrendsCollected(platform string, n int)
	RecordError(kind string)
	RecordForecast(topics, skipped int)
	RecordLatency(op string, seconds float64)
}
