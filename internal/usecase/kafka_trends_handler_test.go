package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
	"TrendPulse/pkg/metrics"
)

func TestKafkaTrendsHandler(t *testing.T) {
	store := &memStore{}
	h := NewKafkaTrendsHandler("trendpulse.trends", store, metrics.Nop{})
	assert.Equal(t, "trendpulse.trends", h.Topic())

	ev := models.TrendEvent{
		EventID:    uuid.New(),
		Trend:      models.Trend{ID: uuid.New(), Text: "Fitness Tips", ViewCount: 42, Platform: models.PlatformTwitter, CreatedAt: time.Now().UTC()},
		ProducedAt: time.Now().UTC(),
	}
	b, err := json.Marshal(ev)
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), b))
	require.Len(t, store.trends, 1)
	assert.Equal(t, ev.Trend.ID, store.trends[0].ID)

	assert.Error(t, h.Handle(context.Background(), []byte("{not json")))
	assert.Error(t, h.Handle(context.Background(), []byte(`{"trend":{"text":""}}`)))

	store.saveErr = errBoom
	assert.ErrorIs(t, h.Handle(context.Background(), b), errBoom)
}
