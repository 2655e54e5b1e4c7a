package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_BurstThenRefill(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := New(1, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	// other keys have their own bucket
	assert.True(t, l.Allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestLimiter_Disabled(t *testing.T) {
	l := New(0, 1)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("k"))
	}
}

func TestEvery(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := Every(500 * time.Millisecond)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("TikTok"))
	now = now.Add(100 * time.Millisecond)
	assert.False(t, l.Allow("TikTok"))
	now = now.Add(400 * time.Millisecond)
	assert.True(t, l.Allow("TikTok"))

	assert.True(t, Every(0).Allow("x"))
}

func TestLimiter_SweepsIdleKeys(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := New(1, 1)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(time.Hour)
	l.mu.Lock()
	l.sweepLocked(now)
	l.mu.Unlock()
	assert.Equal(t, 0, l.Keys())
}
