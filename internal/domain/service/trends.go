package service

import (
	"context"

	"TrendPulse/internal/domain/models"
)

// Forecaster turns per-topic view series into day-by-day predictions.
// Implementations hold no mutable state and are safe for concurrent use.
type Forecaster interface {
	Predict(series []models.Observation, daysAhead int) ([]models.Prediction, error)
	// ForecastAll never fails as a whole: topics that cannot be forecast are
	// left out of the result and reported in the returned error slice.
	ForecastAll(ctx context.Context, topics map[string][]models.Observation, daysAhead int) (models.Forecast, []error)
}

// TrendAnalyzer extracts keyword statistics and groups history by topic.
type TrendAnalyzer interface {
	Analyze(byPlatform map[string][]models.RawTrend) models.TrendAnalysis
	GroupByTopic(records []models.TrendRecord) map[string][]models.Observation
}

// ContentRecommender produces content ideas for a topic.
type ContentRecommender interface {
	Recommend(topic string) models.Recommendations
	Generate(contentType, topic string) models.GeneratedContent
}
