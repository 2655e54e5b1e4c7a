package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	domsvc "TrendPulse/internal/domain/service"
	"TrendPulse/internal/services/forecast"
	"TrendPulse/pkg/logger"
)

// PredictionStore is the slice of storage the prediction use case needs.
type PredictionStore interface {
	History(ctx context.Context, since time.Time) ([]models.Trend, error)
	LatestTrendID(ctx context.Context, topic string) (uuid.UUID, bool, error)
	drepo.PredictionStore
}

// PredictionService forecasts every topic seen in the history window and
// stores the predictions against the latest matching trend.
type PredictionService struct {
	store       PredictionStore
	analyzer    domsvc.TrendAnalyzer
	forecaster  domsvc.Forecaster
	metrics     drepo.Metrics
	log         *logger.Logger
	historyDays int
	now         func() time.Time
}

func NewPredictionService(
	store PredictionStore,
	analyzer domsvc.TrendAnalyzer,
	forecaster domsvc.Forecaster,
	metrics drepo.Metrics,
	lgr *logger.Logger,
	historyDays int,
) *PredictionService {
	if historyDays <= 0 {
		historyDays = 30
	}
	return &PredictionService{
		store:       store,
		analyzer:    analyzer,
		forecaster:  forecaster,
		metrics:     metrics,
		log:         lgr,
		historyDays: historyDays,
		now:         time.Now,
	}
}

func (s *PredictionService) Predict(ctx context.Context, days int) (*models.ForecastResponse, error) {
	start := time.Now()
	now := s.now().UTC()

	history, err := s.store.History(ctx, now.AddDate(0, 0, -s.historyDays))
	if err != nil {
		s.metrics.RecordError("history")
		return nil, fmt.Errorf("load history: %w", err)
	}

	records := make([]models.TrendRecord, len(history))
	for i, t := range history {
		records[i] = t.Record()
	}
	topics := s.analyzer.GroupByTopic(records)

	result, failures := s.forecaster.ForecastAll(ctx, topics, days)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	skipped := s.reportFailures(failures)
	s.metrics.RecordForecast(len(result), len(failures))

	if err := s.persist(ctx, result, now); err != nil {
		s.metrics.RecordError("save_predictions")
		return nil, err
	}

	s.metrics.RecordLatency("predict", time.Since(start).Seconds())
	s.log.Info("trend predictions generated",
		logger.Int("history", len(history)),
		logger.Int("topics", len(topics)),
		logger.Int("forecast", len(result)),
		logger.Int("skipped", len(failures)))

	return &models.ForecastResponse{
		Predictions: result,
		UpdatedAt:   now.Format(models.TimestampLayout),
		Skipped:     skipped,
	}, nil
}

// reportFailures logs each skipped topic once and returns the topics that
// failed for a reason other than a short history.
func (s *PredictionService) reportFailures(failures []error) []string {
	var skipped []string
	for _, err := range failures {
		kind := forecast.Kind(err)
		s.metrics.RecordError("forecast_" + kind)

		topic := ""
		var te *forecast.TopicError
		if errors.As(err, &te) {
			topic = te.Topic
		}

		if errors.Is(err, forecast.ErrInsufficientData) {
			s.log.Debug("topic skipped", logger.String("topic", topic), logger.String("reason", kind))
			continue
		}
		s.log.Warn("topic skipped", logger.String("topic", topic), logger.String("reason", kind), logger.Error(err))
		skipped = append(skipped, topic)
	}
	return skipped
}

// persist stores predictions of topics that still resolve to a trend row.
func (s *PredictionService) persist(ctx context.Context, result models.Forecast, now time.Time) error {
	topics := make([]string, 0, len(result))
	for topic := range result {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	var rows []models.PredictionRecord
	for _, topic := range topics {
		trendID, ok, err := s.store.LatestTrendID(ctx, topic)
		if err != nil {
			return fmt.Errorf("resolve trend %q: %w", topic, err)
		}
		if !ok {
			continue
		}
		for _, p := range result[topic] {
			target, err := time.Parse(models.DateLayout, p.Date)
			if err != nil {
				return fmt.Errorf("prediction date %q: %w", p.Date, err)
			}
			rows = append(rows, models.PredictionRecord{
				ID:              uuid.New(),
				TrendID:         trendID,
				Topic:           topic,
				PredictedViews:  p.PredictedViews,
				ConfidenceScore: p.Confidence,
				UpperBound:      p.UpperBound,
				LowerBound:      p.LowerBound,
				PredictionDate:  now,
				TargetDate:      target,
			})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	if err := s.store.SavePredictions(ctx, rows); err != nil {
		return fmt.Errorf("save predictions: %w", err)
	}
	return nil
}
