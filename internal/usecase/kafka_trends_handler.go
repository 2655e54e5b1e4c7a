package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	pkgkafka "TrendPulse/pkg/kafka"
)

// TrendWriter persists decoded trend events.
type TrendWriter interface {
	SaveTrends(ctx context.Context, trends []models.Trend) error
}

// KafkaTrendsHandler consumes trend events and writes them to storage.
type KafkaTrendsHandler struct {
	topic   string
	store   TrendWriter
	metrics drepo.Metrics
}

func NewKafkaTrendsHandler(topic string, store TrendWriter, metrics drepo.Metrics) *KafkaTrendsHandler {
	return &KafkaTrendsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaTrendsHandler) Topic() string { return h.topic }

func (h *KafkaTrendsHandler) Handle(ctx context.Context, b []byte) error {
	var ev models.TrendEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode trend event: %w", err)
	}
	if ev.Trend.Text == "" {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("trend event %s has no text", ev.EventID)
	}
	if !ev.ProducedAt.IsZero() {
		h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(ev.ProducedAt).Seconds())
	}

	start := time.Now()
	err := h.store.SaveTrends(ctx, []models.Trend{ev.Trend})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaTrendsHandler)(nil)
