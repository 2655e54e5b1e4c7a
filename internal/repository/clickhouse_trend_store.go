package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/repository"
	pkgch "TrendPulse/pkg/clickhouse"
	"TrendPulse/pkg/logger"
)

const insertChunkSize = 2000

// ClickHouseTrendStore persists trends, predictions and content in ClickHouse.
type ClickHouseTrendStore struct {
	db     *sql.DB
	logger *logger.Logger
	now    func() time.Time
}

func NewClickHouseTrendStore(db *sql.DB, lgr *logger.Logger) *ClickHouseTrendStore {
	return &ClickHouseTrendStore{db: db, logger: lgr, now: time.Now}
}

func (s *ClickHouseTrendStore) Init(ctx context.Context) error {
	return pkgch.NewFromDB(s.db).InitSchema(ctx, Schema())
}

func (s *ClickHouseTrendStore) EnsurePlatform(ctx context.Context, name string) error {
	var n uint64
	q := fmt.Sprintf("SELECT count() FROM %s WHERE name = ?", platformsTable)
	if err := s.db.QueryRowContext(ctx, q, name).Scan(&n); err != nil {
		return fmt.Errorf("lookup platform %s: %w", name, err)
	}
	if n > 0 {
		return nil
	}

	q = fmt.Sprintf("INSERT INTO %s (name, created_at) VALUES (?, ?)", platformsTable)
	if _, err := s.db.ExecContext(ctx, q, name, s.now().UTC()); err != nil {
		return fmt.Errorf("insert platform %s: %w", name, err)
	}
	s.logger.Info("platform registered", logger.String("platform", name))
	return nil
}

func (s *ClickHouseTrendStore) SaveTrends(ctx context.Context, trends []models.Trend) error {
	rows := make([][]interface{}, 0, len(trends))
	for _, t := range trends {
		if t.Text == "" {
			continue
		}
		hashtags := t.Hashtags
		if hashtags == nil {
			hashtags = []string{}
		}
		rows = append(rows, []interface{}{t.ID, t.Text, hashtags, t.ViewCount, t.Platform, t.CreatedAt.UTC()})
	}
	if err := s.insert(ctx, trendsTable, []string{"id", "text", "hashtags", "view_count", "platform", "created_at"}, rows); err != nil {
		return fmt.Errorf("save trends: %w", err)
	}
	return nil
}

// Store lets the store act as the direct TrendSink.
func (s *ClickHouseTrendStore) Store(ctx context.Context, trends []models.Trend) error {
	return s.SaveTrends(ctx, trends)
}

func (s *ClickHouseTrendStore) History(ctx context.Context, since time.Time) ([]models.Trend, error) {
	q := fmt.Sprintf(
		"SELECT id, text, hashtags, view_count, platform, created_at FROM %s WHERE created_at >= ? ORDER BY created_at ASC",
		trendsTable)
	rows, err := s.db.QueryContext(ctx, q, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var trends []models.Trend
	for rows.Next() {
		var t models.Trend
		if err := rows.Scan(&t.ID, &t.Text, &t.Hashtags, &t.ViewCount, &t.Platform, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trend: %w", err)
		}
		trends = append(trends, t)
	}
	return trends, rows.Err()
}

func (s *ClickHouseTrendStore) LatestTrendID(ctx context.Context, topic string) (uuid.UUID, bool, error) {
	q := fmt.Sprintf("SELECT id FROM %s WHERE lower(text) = lower(?) ORDER BY created_at DESC LIMIT 1", trendsTable)

	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, q, topic).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("resolve trend %q: %w", topic, err)
	}
	return id, true, nil
}

func (s *ClickHouseTrendStore) LatestTrend(ctx context.Context) (*models.Trend, error) {
	q := fmt.Sprintf(
		"SELECT id, text, hashtags, view_count, platform, created_at FROM %s ORDER BY created_at DESC LIMIT 1",
		trendsTable)

	var t models.Trend
	err := s.db.QueryRowContext(ctx, q).Scan(&t.ID, &t.Text, &t.Hashtags, &t.ViewCount, &t.Platform, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest trend: %w", err)
	}
	return &t, nil
}

func (s *ClickHouseTrendStore) SavePredictions(ctx context.Context, predictions []models.PredictionRecord) error {
	rows := make([][]interface{}, 0, len(predictions))
	for _, p := range predictions {
		rows = append(rows, []interface{}{
			p.ID, p.TrendID, p.Topic, p.PredictedViews, p.ConfidenceScore,
			p.UpperBound, p.LowerBound, p.PredictionDate.UTC(), p.TargetDate,
		})
	}
	cols := []string{"id", "trend_id", "topic", "predicted_views", "confidence_score",
		"upper_bound", "lower_bound", "prediction_date", "target_date"}
	if err := s.insert(ctx, predictionsTable, cols, rows); err != nil {
		return fmt.Errorf("save predictions: %w", err)
	}
	return nil
}

func (s *ClickHouseTrendStore) SaveContents(ctx context.Context, contents []models.ContentRecord) error {
	rows := make([][]interface{}, 0, len(contents))
	for _, c := range contents {
		rows = append(rows, []interface{}{
			c.ID, c.TrendID, c.Type, c.Suggestion, c.Format, c.EstimatedEngagement, c.CreatedAt.UTC(),
		})
	}
	cols := []string{"id", "trend_id", "type", "suggestion", "format", "estimated_engagement", "created_at"}
	if err := s.insert(ctx, contentsTable, cols, rows); err != nil {
		return fmt.Errorf("save contents: %w", err)
	}
	return nil
}

func (s *ClickHouseTrendStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.
func (s *ClickHouseTrendStore) Close() error {
	return nil
}

// insert writes rows with multi-row VALUES statements, chunked to bound query size.
func (s *ClickHouseTrendStore) insert(ctx context.Context, table string, cols []string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
	head := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", table, strings.Join(cols, ", "))

	for start := 0; start < len(rows); start += insertChunkSize {
		end := min(start+insertChunkSize, len(rows))

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*len(cols))
		for _, row := range rows[start:end] {
			values = append(values, placeholder)
			args = append(args, row...)
		}

		begin := time.Now()
		if _, err := s.db.ExecContext(ctx, head+strings.Join(values, ", "), args...); err != nil {
			return err
		}
		s.logger.Debug("clickhouse insert",
			logger.String("table", table),
			logger.Int("rows", end-start),
			logger.Duration("latency_ms", time.Since(begin)))
	}
	return nil
}

var (
	_ repository.TrendStore      = (*ClickHouseTrendStore)(nil)
	_ repository.PredictionStore = (*ClickHouseTrendStore)(nil)
	_ repository.ContentStore    = (*ClickHouseTrendStore)(nil)
	_ repository.TrendSink       = (*ClickHouseTrendStore)(nil)
)
