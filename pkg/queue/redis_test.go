package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/pkg/logger"
)

type refresh struct {
	Trends int `json:"trends"`
}

func newTestQueue(t *testing.T, cfg Config) *RedisQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisQueue(logger.Nop(), client, cfg, WithKeyPrefix("test:queue"))
}

func TestRedisQueue_DeliversPayload(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t, Config{})

	var got refresh
	q.Register(JobFunc{Name: "forecast.refresh", Fn: func(_ context.Context, p json.RawMessage) error {
		var err error
		got, err = Decode[refresh](p)
		return err
	}})

	require.NoError(t, q.Enqueue(ctx, "forecast.refresh", refresh{Trends: 6}))
	n, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	popped, err := q.processNext(ctx)
	require.NoError(t, err)
	assert.True(t, popped)
	assert.Equal(t, 6, got.Trends)

	n, _ = q.Pending(ctx)
	assert.Zero(t, n)
}

func TestRedisQueue_RetriesThenDeadLetters(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t, Config{RetryLimit: 1, RetryDelay: time.Minute})
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return clock }

	var calls int32
	q.Register(JobFunc{Name: "flaky", Fn: func(context.Context, json.RawMessage) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("boom")
	}})
	require.NoError(t, q.Enqueue(ctx, "flaky", refresh{}))

	_, err := q.processNext(ctx)
	require.NoError(t, err)

	// not due yet
	moved, err := q.moveDueRetries(ctx)
	require.NoError(t, err)
	assert.Zero(t, moved)

	clock = clock.Add(2 * time.Minute)
	moved, err = q.moveDueRetries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	_, err = q.processNext(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	dead, err := q.DeadLetters(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, dead)
}

func TestRedisQueue_UnknownTypeIsDeadLettered(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t, Config{})
	require.NoError(t, q.Enqueue(ctx, "nobody", refresh{}))

	_, err := q.processNext(ctx)
	require.NoError(t, err)

	dead, err := q.DeadLetters(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, dead)
}

func TestRedisQueue_StartStop(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t, Config{Workers: 2, PollTimeout: 50 * time.Millisecond})

	var handled int32
	q.Register(JobFunc{Name: "forecast.refresh", Fn: func(context.Context, json.RawMessage) error {
		atomic.AddInt32(&handled, 1)
		return nil
	}})

	require.NoError(t, q.Start(ctx))
	require.Error(t, q.Start(ctx))

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(ctx, "forecast.refresh", refresh{Trends: i}))
	}
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&handled) == 3 }, 2*time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, q.Stop(stopCtx))
	require.NoError(t, q.Stop(stopCtx))
}

func TestDecode_EmptyPayload(t *testing.T) {
	_, err := Decode[refresh](nil)
	assert.Error(t, err)
}
