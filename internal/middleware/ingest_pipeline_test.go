package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
	"TrendPulse/pkg/metrics"
)

type recordingSink struct {
	mu      sync.Mutex
	batches [][]models.Trend
	fail    int
}

func (s *recordingSink) Store(_ context.Context, trends []models.Trend) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail > 0 {
		s.fail--
		return errors.New("clickhouse down")
	}
	s.batches = append(s.batches, trends)
	return nil
}

func (s *recordingSink) stored() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func trend(text, platform string, views int64) models.Trend {
	return models.Trend{
		Text:      text,
		Platform:  platform,
		ViewCount: views,
		CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestIngestPipeline_DropsInvalid(t *testing.T) {
	sink := &recordingSink{}
	p := NewIngestPipeline(sink, metrics.Nop{})

	accepted, err := p.Process(context.Background(), []models.Trend{
		trend("Dance Challenge", models.PlatformTikTok, 100),
		trend("  ", models.PlatformTikTok, 10),
		trend("AI Art", models.PlatformTwitter, -1),
		trend("Cooking Hacks", "", 5),
	})

	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, "Dance Challenge", accepted[0].Text)
	assert.Equal(t, 1, sink.stored())
}

func TestIngestPipeline_ThrottlesPerPlatform(t *testing.T) {
	sink := &recordingSink{}
	p := NewIngestPipeline(sink, metrics.Nop{}, WithPlatformThrottle(time.Hour))

	accepted, err := p.Process(context.Background(), []models.Trend{
		trend("a", models.PlatformTikTok, 1),
		trend("b", models.PlatformTikTok, 1),
		trend("c", models.PlatformTwitter, 1),
	})

	require.NoError(t, err)
	assert.Len(t, accepted, 2)
}

func TestIngestPipeline_TransformIsRevalidated(t *testing.T) {
	sink := &recordingSink{}
	p := NewIngestPipeline(sink, metrics.Nop{}, WithTransform(func(t models.Trend) models.Trend {
		if t.Text == "drop" {
			t.Text = ""
		}
		return t
	}))

	accepted, err := p.Process(context.Background(), []models.Trend{
		trend("keep", models.PlatformTikTok, 1),
		trend("drop", models.PlatformTikTok, 1),
	})
	require.NoError(t, err)
	assert.Len(t, accepted, 1)
}

func TestIngestPipeline_BuffersAndRetries(t *testing.T) {
	sink := &recordingSink{fail: 1}
	p := NewIngestPipeline(sink, metrics.Nop{}, WithBufferSize(4))

	_, err := p.Process(context.Background(), []models.Trend{trend("Fitness Tips", models.PlatformTwitter, 7)})
	require.Error(t, err)
	assert.Equal(t, 1, p.Buffered())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	assert.Eventually(t, func() bool { return sink.stored() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, p.Buffered())
}

func TestIngestPipeline_RestartResumesRetries(t *testing.T) {
	sink := &recordingSink{}
	p := NewIngestPipeline(sink, metrics.Nop{}, WithBufferSize(4))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p.Start(ctx)
	p.Stop()
	p.Stop()

	sink.mu.Lock()
	sink.fail = 1
	sink.mu.Unlock()

	_, err := p.Process(ctx, []models.Trend{trend("Street Food", models.PlatformTikTok, 12)})
	require.Error(t, err)
	assert.Equal(t, 1, p.Buffered())

	p.Start(ctx)
	defer p.Stop()

	assert.Eventually(t, func() bool { return sink.stored() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, p.Buffered())
}
