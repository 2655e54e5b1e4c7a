package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"TrendPulse/internal/domain/models"
)

// memStore is an in-memory TrendStore used across use case tests.
type memStore struct {
	mu          sync.Mutex
	platforms   []string
	trends      []models.Trend
	predictions []models.PredictionRecord
	contents    []models.ContentRecord
	saveErr     error
	platformErr error
}

func (s *memStore) Init(context.Context) error { return nil }

func (s *memStore) EnsurePlatform(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.platformErr != nil {
		return s.platformErr
	}
	for _, p := range s.platforms {
		if p == name {
			return nil
		}
	}
	s.platforms = append(s.platforms, name)
	return nil
}

func (s *memStore) SaveTrends(_ context.Context, trends []models.Trend) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.trends = append(s.trends, trends...)
	return nil
}

func (s *memStore) Store(ctx context.Context, trends []models.Trend) error {
	return s.SaveTrends(ctx, trends)
}

func (s *memStore) History(_ context.Context, since time.Time) ([]models.Trend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Trend
	for _, t := range s.trends {
		if !t.CreatedAt.Before(since) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memStore) LatestTrendID(_ context.Context, topic string) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.Trend
	for i := range s.trends {
		t := &s.trends[i]
		if strings.EqualFold(t.Text, topic) && (best == nil || t.CreatedAt.After(best.CreatedAt)) {
			best = t
		}
	}
	if best == nil {
		return uuid.Nil, false, nil
	}
	return best.ID, true, nil
}

func (s *memStore) LatestTrend(context.Context) (*models.Trend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.Trend
	for i := range s.trends {
		t := s.trends[i]
		if best == nil || t.CreatedAt.After(best.CreatedAt) {
			best = &t
		}
	}
	return best, nil
}

func (s *memStore) SavePredictions(_ context.Context, p []models.PredictionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.predictions = append(s.predictions, p...)
	return nil
}

func (s *memStore) SaveContents(_ context.Context, c []models.ContentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.contents = append(s.contents, c...)
	return nil
}

func (s *memStore) Health(context.Context) error { return nil }
func (s *memStore) Close() error                 { return nil }

func (s *memStore) add(text string, views int64, at time.Time) models.Trend {
	t := models.Trend{ID: uuid.New(), Text: text, ViewCount: views, Platform: models.PlatformTikTok, CreatedAt: at}
	s.trends = append(s.trends, t)
	return t
}

type stubSource struct {
	name   string
	trends []models.RawTrend
	err    error
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) FetchTrends(context.Context) ([]models.RawTrend, error) {
	return s.trends, s.err
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []models.TrendEvent
}

func (b *recordingBroadcaster) Broadcast(e models.TrendEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

var errBoom = errors.New("boom")

type enqueued struct {
	msgType string
	payload interface{}
}

type recordingQueue struct {
	mu   sync.Mutex
	msgs []enqueued
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, msgType string, payload interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.msgs = append(q.msgs, enqueued{msgType: msgType, payload: payload})
	return nil
}
