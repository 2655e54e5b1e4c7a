package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
	"TrendPulse/pkg/logger"
)

// arrayConverter lets []string arguments through the way clickhouse-go accepts Array(String).
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v interface{}) (driver.Value, error) {
	if s, ok := v.([]string); ok {
		return s, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newMockStore(t *testing.T) (*ClickHouseTrendStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewClickHouseTrendStore(db, logger.Nop())
	s.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return s, mock
}

var trendColumns = []string{"id", "text", "hashtags", "view_count", "platform", "created_at"}

func TestInitCreatesAllTables(t *testing.T) {
	s, mock := newMockStore(t)
	for range Schema() {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, s.Init(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsurePlatform(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\) FROM platforms WHERE name = \?`).
		WithArgs("TikTok").
		WillReturnRows(sqlmock.NewRows([]string{"count()"}).AddRow(uint64(0)))
	mock.ExpectExec(`INSERT INTO platforms`).
		WithArgs("TikTok", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(`SELECT count\(\) FROM platforms`).
		WithArgs("Twitter").
		WillReturnRows(sqlmock.NewRows([]string{"count()"}).AddRow(uint64(1)))

	require.NoError(t, s.EnsurePlatform(context.Background(), "TikTok"))
	require.NoError(t, s.EnsurePlatform(context.Background(), "Twitter"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTrends(t *testing.T) {
	s, mock := newMockStore(t)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	trends := []models.Trend{
		{ID: uuid.New(), Text: "Dance Challenge", Hashtags: []string{"dance"}, ViewCount: 10, Platform: "TikTok", CreatedAt: created},
		{ID: uuid.New(), Text: "", ViewCount: 1},
		{ID: uuid.New(), Text: "Tech News", ViewCount: 20, Platform: "Twitter", CreatedAt: created},
	}

	mock.ExpectExec(`INSERT INTO trends \(id, text, hashtags, view_count, platform, created_at\) VALUES \(\?, \?, \?, \?, \?, \?\), \(\?, \?, \?, \?, \?, \?\)$`).
		WithArgs(
			trends[0].ID, "Dance Challenge", []string{"dance"}, int64(10), "TikTok", created,
			trends[2].ID, "Tech News", []string{}, int64(20), "Twitter", created,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, s.SaveTrends(context.Background(), trends))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTrendsEmptyIsNoop(t *testing.T) {
	s, mock := newMockStore(t)
	require.NoError(t, s.SaveTrends(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory(t *testing.T) {
	s, mock := newMockStore(t)

	id := uuid.New()
	at := time.Date(2024, 4, 20, 9, 0, 0, 0, time.UTC)
	since := at.Add(-time.Hour)

	mock.ExpectQuery(`SELECT id, text, hashtags, view_count, platform, created_at FROM trends WHERE created_at >= \? ORDER BY created_at ASC`).
		WithArgs(since).
		WillReturnRows(mock.NewRows(trendColumns).
			AddRow(id.String(), "Dance Challenge", []string{"dance"}, int64(100), "TikTok", at))

	got, err := s.History(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, []string{"dance"}, got[0].Hashtags)
	assert.Equal(t, "2024-04-20 09:00:00", got[0].Record().Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestTrendID(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT id FROM trends WHERE lower\(text\) = lower\(\?\) ORDER BY created_at DESC LIMIT 1`).
		WithArgs("dance challenge").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))
	mock.ExpectQuery(`SELECT id FROM trends`).
		WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT id FROM trends`).
		WithArgs("broken").
		WillReturnError(errors.New("connection reset"))

	got, ok, err := s.LatestTrendID(context.Background(), "dance challenge")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok, err = s.LatestTrendID(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = s.LatestTrendID(context.Background(), "broken")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestTrendEmptyTable(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`ORDER BY created_at DESC LIMIT 1`).WillReturnRows(sqlmock.NewRows(trendColumns))

	got, err := s.LatestTrend(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSavePredictionsAndContents(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO trend_predictions`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO contents`).WillReturnError(errors.New("table is read-only"))

	require.NoError(t, s.SavePredictions(context.Background(), []models.PredictionRecord{{
		ID:             uuid.New(),
		TrendID:        uuid.New(),
		Topic:          "dance challenge",
		PredictedViews: 110,
		PredictionDate: time.Now(),
		TargetDate:     time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	}}))

	err := s.SaveContents(context.Background(), []models.ContentRecord{{ID: uuid.New(), Type: "video"}})
	assert.ErrorContains(t, err, "save contents")
	assert.NoError(t, mock.ExpectationsWereMet())
}
