package logger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches []AggregatedLogBatch
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.(AggregatedLogBatch))
	return nil
}

func (p *capturePublisher) snapshot() []AggregatedLogBatch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]AggregatedLogBatch(nil), p.batches...)
}

func TestLogCollector_FoldsRepeatsAndFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		Service:        "trendpulse",
		TimeInterval:   time.Hour,
		CountThreshold: 2,
		Topic:          "trendpulse.logs",
		Publisher:      pub,
	})
	defer c.Close()

	fields := map[string]interface{}{"topic": "dance"}
	c.AddLog("warn", "topic skipped", fields, "prediction_service.go:10")
	c.AddLog("warn", "topic skipped", map[string]interface{}{"topic": "dance"}, "prediction_service.go:10")
	assert.Equal(t, 1, c.Pending())

	c.AddLog("error", "save failed", nil, "store.go:20")

	require.Eventually(t, func() bool { return len(pub.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, c.Pending())

	batch := pub.snapshot()[0]
	assert.Equal(t, "trendpulse", batch.Service)
	require.Len(t, batch.Entries, 2)

	counts := map[string]int{}
	for _, e := range batch.Entries {
		counts[e.Message] = e.Count
	}
	assert.Equal(t, map[string]int{"topic skipped": 2, "save failed": 1}, counts)
}

func TestLogger_CollectsOnlyWarnAndError(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Topic: "logs", Publisher: pub})

	l.Info("collected")
	l.Debug("noise")
	l.Warn("platform fetch failed", String("platform", "TikTok"))
	l.Warn("platform fetch failed", String("platform", "TikTok"))
	l.Error("store down", Error(assert.AnError))

	// closing flushes what is pending
	l.RemoveCollector()

	batches := pub.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, "logs", pub.topic)
	assert.Len(t, batches[0].Entries, 2)
}

func TestEntryKey_IgnoresFieldOrder(t *testing.T) {
	a := entryKey("warn", "m", map[string]interface{}{"a": 1, "b": "x"}, "f.go:1")
	b := entryKey("warn", "m", map[string]interface{}{"b": "x", "a": 1}, "f.go:1")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, entryKey("error", "m", nil, "f.go:1"))
}
