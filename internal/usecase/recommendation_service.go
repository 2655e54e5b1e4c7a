package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	domsvc "TrendPulse/internal/domain/service"
	"TrendPulse/pkg/logger"
)

// ContentStore is the slice of storage recommendations need.
type ContentStore interface {
	LatestTrend(ctx context.Context) (*models.Trend, error)
	drepo.ContentStore
}

// RecommendationService wraps the recommender and records every suggestion
// it hands out against the most recent trend.
type RecommendationService struct {
	store       ContentStore
	recommender domsvc.ContentRecommender
	metrics     drepo.Metrics
	log         *logger.Logger
	now         func() time.Time
}

func NewRecommendationService(store ContentStore, rec domsvc.ContentRecommender, metrics drepo.Metrics, lgr *logger.Logger) *RecommendationService {
	return &RecommendationService{store: store, recommender: rec, metrics: metrics, log: lgr, now: time.Now}
}

func (s *RecommendationService) Recommend(ctx context.Context, topic string) (models.Recommendations, error) {
	recs := s.recommender.Recommend(topic)

	latest, err := s.store.LatestTrend(ctx)
	if err != nil {
		return models.Recommendations{}, fmt.Errorf("latest trend: %w", err)
	}
	if latest == nil {
		return recs, nil
	}

	now := s.now().UTC()
	rows := make([]models.ContentRecord, 0, len(recs.VideoIdeas)+len(recs.ImageIdeas))
	rows = appendIdeas(rows, latest.ID, models.ContentVideo, recs.VideoIdeas, now)
	rows = appendIdeas(rows, latest.ID, models.ContentImage, recs.ImageIdeas, now)
	if err := s.store.SaveContents(ctx, rows); err != nil {
		s.metrics.RecordError("save_contents")
		return models.Recommendations{}, fmt.Errorf("save recommendations: %w", err)
	}

	s.log.Debug("recommendations stored", logger.String("topic", topic), logger.Int("rows", len(rows)))
	return recs, nil
}

func (s *RecommendationService) Generate(ctx context.Context, contentType, topic string) (models.GeneratedContent, error) {
	content := s.recommender.Generate(contentType, topic)

	latest, err := s.store.LatestTrend(ctx)
	if err != nil {
		return models.GeneratedContent{}, fmt.Errorf("latest trend: %w", err)
	}
	if latest == nil {
		return content, nil
	}

	row := models.ContentRecord{
		ID:         uuid.New(),
		TrendID:    latest.ID,
		Type:       contentType,
		Suggestion: content.Content,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.SaveContents(ctx, []models.ContentRecord{row}); err != nil {
		s.metrics.RecordError("save_contents")
		return models.GeneratedContent{}, fmt.Errorf("save generated content: %w", err)
	}
	return content, nil
}

func appendIdeas(rows []models.ContentRecord, trendID uuid.UUID, kind string, ideas []models.ContentIdea, now time.Time) []models.ContentRecord {
	for _, idea := range ideas {
		rows = append(rows, models.ContentRecord{
			ID:                  uuid.New(),
			TrendID:             trendID,
			Type:                kind,
			Suggestion:          idea.Suggestion,
			Format:              idea.Format,
			EstimatedEngagement: idea.EstimatedEngagement,
			CreatedAt:           now,
		})
	}
	return rows
}
