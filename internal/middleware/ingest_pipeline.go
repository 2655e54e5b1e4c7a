package middleware

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"TrendPulse/internal/domain/models"
	domrepo "TrendPulse/internal/domain/repository"
	"TrendPulse/internal/service/ratelimit"
)

// IngestPipeline sits between the platform collector and the trend sink.
// It validates and throttles trends, forwards them, and buffers batches
// the sink rejected so a background loop can retry them.
type IngestPipeline struct {
	sink     domrepo.TrendSink
	metrics  domrepo.Metrics
	throttle *ratelimit.Limiter
	bufSize  int
	bufCh    chan []models.Trend
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex

	transform func(models.Trend) models.Trend
}

type PipelineOption func(*IngestPipeline)

// WithPlatformThrottle admits at most one trend per platform per interval.
// Zero disables throttling.
func WithPlatformThrottle(interval time.Duration) PipelineOption {
	return func(p *IngestPipeline) {
		if interval > 0 {
			p.throttle = ratelimit.Every(interval)
		}
	}
}

// WithBufferSize sets how many rejected batches are kept for retry.
func WithBufferSize(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform rewrites each trend before validation is repeated on the result.
func WithTransform(fn func(models.Trend) models.Trend) PipelineOption {
	return func(p *IngestPipeline) { p.transform = fn }
}

func NewIngestPipeline(sink domrepo.TrendSink, metrics domrepo.Metrics, opts ...PipelineOption) *IngestPipeline {
	p := &IngestPipeline{
		sink:    sink,
		metrics: metrics,
		bufSize: 64,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan []models.Trend, p.bufSize)
	return p
}

// Start launches background flushing of buffered batches. A stopped
// pipeline can be started again; batches buffered meanwhile are retried.
func (p *IngestPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	p.stopCh = make(chan struct{})

	go p.flushLoop(ctx, p.stopCh)
}

func (p *IngestPipeline) flushLoop(ctx context.Context, stop <-chan struct{}) {
	backoff := 50 * time.Millisecond
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case batch := <-p.bufCh:
			if err := p.sink.Store(ctx, batch); err != nil {
				p.metrics.RecordError("pipeline_flush")
				if backoff < 2*time.Second {
					backoff *= 2
				}
				stopped := false
				select {
				case <-time.After(backoff):
				case <-stop:
					stopped = true
				}
				select {
				case p.bufCh <- batch:
				default:
					p.metrics.RecordError("pipeline_buffer_drop")
				}
				if stopped {
					return
				}
				continue
			}
			backoff = 50 * time.Millisecond
		}
	}
}

// Stop ends the flush loop. Buffered batches stay queued for the next Start.
func (p *IngestPipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	close(p.stopCh)
}

// Buffered reports the number of batches waiting for retry.
func (p *IngestPipeline) Buffered() int {
	return len(p.bufCh)
}

// Process filters trends and forwards the accepted ones to the sink.
// It returns the accepted trends; on a sink error they are buffered and the
// error is returned alongside them.
func (p *IngestPipeline) Process(ctx context.Context, trends []models.Trend) ([]models.Trend, error) {
	start := time.Now()
	accepted := make([]models.Trend, 0, len(trends))
	for _, t := range trends {
		if err := validateTrend(t); err != nil {
			p.metrics.RecordError("pipeline_validate")
			continue
		}
		if p.transform != nil {
			t = p.transform(t)
			if err := validateTrend(t); err != nil {
				p.metrics.RecordError("pipeline_transform_invalid")
				continue
			}
		}
		if p.throttle != nil && !p.throttle.Allow(t.Platform) {
			p.metrics.RecordError("pipeline_throttle")
			continue
		}
		accepted = append(accepted, t)
	}
	if len(accepted) == 0 {
		return accepted, nil
	}

	if err := p.sink.Store(ctx, accepted); err != nil {
		p.metrics.RecordError("pipeline_store")
		select {
		case p.bufCh <- accepted:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return accepted, fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return accepted, nil
}

func validateTrend(t models.Trend) error {
	if strings.TrimSpace(t.Text) == "" {
		return fmt.Errorf("trend text empty")
	}
	if t.Platform == "" {
		return fmt.Errorf("platform empty")
	}
	if t.ViewCount < 0 {
		return fmt.Errorf("negative view count %d", t.ViewCount)
	}
	if t.CreatedAt.IsZero() {
		return fmt.Errorf("created_at missing")
	}
	return nil
}
