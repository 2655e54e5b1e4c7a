package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyHandler struct {
	failures int
	calls    int
	panics   bool
}

func (h *flakyHandler) Topic() string { return "trends.raw" }

func (h *flakyHandler) Handle(_ context.Context, _ []byte) error {
	h.calls++
	if h.panics {
		panic("boom")
	}
	if h.calls <= h.failures {
		return errors.New("transient")
	}
	return nil
}

func testConsumer(retryMax int) *Consumer {
	return newConsumer(&ConsumerConfig{
		RetryMax:   retryMax,
		BackoffMin: time.Millisecond,
		BackoffMax: 2 * time.Millisecond,
		BufferSize: 1,
	})
}

func TestHandleWithRetry_RecoversAfterFailures(t *testing.T) {
	c := testConsumer(3)
	h := &flakyHandler{failures: 2}

	attempts, err := c.handleWithRetry(h, &message{topic: h.Topic(), km: kafka.Message{Value: []byte("{}")}})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, h.calls)
}

func TestHandleWithRetry_GivesUp(t *testing.T) {
	c := testConsumer(1)
	h := &flakyHandler{failures: 10}

	attempts, err := c.handleWithRetry(h, &message{topic: h.Topic()})

	require.Error(t, err)
	assert.Equal(t, 2, attempts)
}

func TestHandleWithRetry_PanicIsError(t *testing.T) {
	c := testConsumer(0)
	h := &flakyHandler{panics: true}

	_, err := c.handleWithRetry(h, &message{topic: h.Topic()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic")
}

func TestHandleWithRetry_BeforeHookRejects(t *testing.T) {
	c := testConsumer(3)
	c.WithConsumerHook(HookFuncs{
		Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			return ctx, km, data, &HookError{Code: "ERR_VALIDATION"}
		},
	})
	h := &flakyHandler{}

	attempts, err := c.handleWithRetry(h, &message{topic: h.Topic()})

	var hookErr *HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, "ERR_VALIDATION", hookErr.Code)
	assert.Equal(t, 1, attempts)
	assert.Zero(t, h.calls)
}

func TestHookChain_RecoversPanic(t *testing.T) {
	var afterOrder []int
	chain := NewHookChain(
		HookFuncs{After: func(context.Context, string, kafka.Message, []byte, error) { afterOrder = append(afterOrder, 1) }},
		nil,
		HookFuncs{After: func(context.Context, string, kafka.Message, []byte, error) { afterOrder = append(afterOrder, 2) }},
	)
	chain.AfterHandle(context.Background(), "t", kafka.Message{}, nil, nil)
	assert.Equal(t, []int{2, 1}, afterOrder)

	panicky := NewHookChain(HookFuncs{
		Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
			panic("bad hook")
		},
	})
	_, _, data, err := panicky.BeforeHandle(context.Background(), "t", kafka.Message{}, []byte("x"))
	var hookErr *HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, "ERR_PANIC", hookErr.Code)
	assert.Equal(t, []byte("x"), data)
}

func TestPartitionLock_SameMutexPerPartition(t *testing.T) {
	c := testConsumer(0)
	a := c.partitionLock("t", 1)
	b := c.partitionLock("t", 1)
	other := c.partitionLock("t", 2)

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
}

func TestBackoffWithJitter_Bounds(t *testing.T) {
	for attempt := 1; attempt <= 8; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 100*time.Millisecond, attempt)
		assert.LessOrEqual(t, d, 100*time.Millisecond)
		assert.Greater(t, d, time.Duration(0))
	}
}

func TestNewConsumer_RequiresBrokers(t *testing.T) {
	_, err := NewConsumer()
	require.Error(t, err)
}
