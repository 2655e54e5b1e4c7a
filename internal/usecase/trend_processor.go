package usecase

import (
	"context"
	"fmt"
	"time"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
)

const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// TrendProcessor routes collected trends to the configured backend: straight
// into the store, or onto Kafka for the ingest consumer to persist.
type TrendProcessor struct {
	pub     drepo.TrendSink
	store   drepo.TrendSink
	metrics drepo.Metrics
	backend string
}

func NewTrendProcessor(pub, store drepo.TrendSink, metrics drepo.Metrics, backend string) *TrendProcessor {
	return &TrendProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Store satisfies repository.TrendSink.
func (p *TrendProcessor) Store(ctx context.Context, trends []models.Trend) error {
	if len(trends) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case BackendKafka:
		err = p.pub.Store(ctx, trends)
	case BackendClickHouse:
		err = p.store.Store(ctx, trends)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

var _ drepo.TrendSink = (*TrendProcessor)(nil)
