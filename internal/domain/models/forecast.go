package models

import (
	"time"

	"github.com/google/uuid"
)

// Observation is one point of a topic series. Timestamp uses TimestampLayout.
type Observation struct {
	Timestamp string `json:"timestamp"`
	ViewCount int64  `json:"view_count"`
}

// Prediction is one forecast day.
//
// LowerBound <= UpperBound always holds, but PredictedViews may fall outside
// the band when the recent change is large relative to the residual spread.
type Prediction struct {
	Date           string  `json:"date"`
	PredictedViews int64   `json:"predicted_views"`
	Confidence     float64 `json:"confidence"`
	UpperBound     int64   `json:"upper_bound"`
	LowerBound     int64   `json:"lower_bound"`
}

// Forecast maps a topic to its chronologically ordered predictions.
type Forecast map[string][]Prediction

// ForecastResponse is the body of GET /api/trend-predictions.
type ForecastResponse struct {
	Predictions Forecast `json:"predictions"`
	UpdatedAt   string   `json:"updated_at"`
	Skipped     []string `json:"skipped,omitempty"`
}

// PredictionRecord is a stored prediction row.
type PredictionRecord struct {
	ID              uuid.UUID
	TrendID         uuid.UUID
	Topic           string
	PredictedViews  int64
	ConfidenceScore float64
	UpperBound      int64
	LowerBound      int64
	PredictionDate  time.Time
	TargetDate      time.Time
}
