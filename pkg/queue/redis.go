package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"TrendPulse/pkg/logger"
)

var ErrNotRunning = errors.New("queue not running")

// RedisQueue is a list-backed job queue. Failed messages wait in a sorted
// set scored by their retry time and land in a dead-letter list once
// RetryLimit is exhausted.
type RedisQueue struct {
	logger *logger.Logger
	cfg    Config
	client *redis.Client
	prefix string
	now    func() time.Time

	mu      sync.RWMutex
	jobs    map[string]Job
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type RedisQueueOption func(*RedisQueue)

func WithKeyPrefix(prefix string) RedisQueueOption {
	return func(r *RedisQueue) { r.prefix = prefix }
}

func NewRedisQueue(lgr *logger.Logger, client *redis.Client, cfg Config, opts ...RedisQueueOption) *RedisQueue {
	cfg.setDefaults()
	r := &RedisQueue{
		logger: lgr,
		cfg:    cfg,
		client: client,
		prefix: "trendpulse:queue",
		now:    time.Now,
		jobs:   make(map[string]Job),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a job. A second job for the same type is ignored.
func (r *RedisQueue) Register(jobs ...Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, job := range jobs {
		if _, exists := r.jobs[job.Type()]; exists {
			r.logger.Warn("job already registered", logger.String("type", job.Type()))
			continue
		}
		r.jobs[job.Type()] = job
	}
}

// Start pings Redis and launches the workers and the retry mover.
func (r *RedisQueue) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("queue already running")
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.client.Ping(pctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	wctx, wcancel := context.WithCancel(context.Background())
	r.cancel = wcancel
	r.running = true

	for i := 0; i < r.cfg.Workers; i++ {
		r.wg.Add(1)
		go r.worker(wctx)
	}
	r.wg.Add(1)
	go r.retryLoop(wctx)

	r.logger.Info("redis queue started",
		logger.Int("workers", r.cfg.Workers),
		logger.String("prefix", r.prefix))
	return nil
}

// Stop cancels the workers and waits for in-flight jobs or ctx.
func (r *RedisQueue) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	r.cancel()
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("stop queue: %w", ctx.Err())
	case <-done:
		r.logger.Info("redis queue stopped")
		return nil
	}
}

// Enqueue pushes a message. Publishing does not require Start so a
// producer-only process can share the queue.
func (r *RedisQueue) Enqueue(ctx context.Context, msgType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	msg := Message{
		ID:         uuid.NewString(),
		Type:       msgType,
		Payload:    raw,
		EnqueuedAt: r.now().UTC(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := r.client.LPush(ctx, r.pendingKey(), data).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}
	return nil
}

func (r *RedisQueue) Pending(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, r.pendingKey()).Result()
}

func (r *RedisQueue) DeadLetters(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, r.deadKey()).Result()
}

func (r *RedisQueue) worker(ctx context.Context) {
	defer r.wg.Done()
	for ctx.Err() == nil {
		if _, err := r.processNext(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("queue poll failed", logger.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// processNext pops and handles one message. It reports whether a message was popped.
func (r *RedisQueue) processNext(ctx context.Context) (bool, error) {
	res, err := r.client.BRPop(ctx, r.cfg.PollTimeout, r.pendingKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
			return false, nil
		}
		return false, fmt.Errorf("brpop: %w", err)
	}
	if len(res) < 2 {
		return false, nil
	}

	var msg Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		r.logger.Error("drop undecodable message", logger.Error(err))
		return true, nil
	}

	r.mu.RLock()
	job, ok := r.jobs[msg.Type]
	r.mu.RUnlock()
	if !ok {
		r.logger.Error("no job for message type", logger.String("type", msg.Type), logger.String("id", msg.ID))
		r.deadLetter(ctx, msg)
		return true, nil
	}

	if err := job.Handle(ctx, msg.Payload); err != nil {
		if errors.Is(err, context.Canceled) {
			return true, nil
		}
		r.fail(ctx, msg, err)
	}
	return true, nil
}

func (r *RedisQueue) fail(ctx context.Context, msg Message, err error) {
	msg.Attempts++
	if msg.Attempts > r.cfg.RetryLimit {
		r.logger.Error("job failed, dead-lettering",
			logger.String("type", msg.Type),
			logger.String("id", msg.ID),
			logger.Int("attempts", msg.Attempts),
			logger.Error(err))
		r.deadLetter(ctx, msg)
		return
	}

	retryAt := r.now().Add(r.cfg.RetryDelay)
	r.logger.Warn("job failed, retry scheduled",
		logger.String("type", msg.Type),
		logger.String("id", msg.ID),
		logger.Int("attempt", msg.Attempts),
		logger.Error(err))

	data, _ := json.Marshal(msg)
	if zerr := r.client.ZAdd(ctx, r.retryKey(), redis.Z{
		Score:  float64(retryAt.UnixMilli()),
		Member: data,
	}).Err(); zerr != nil {
		r.logger.Error("schedule retry", logger.Error(zerr))
	}
}

func (r *RedisQueue) deadLetter(ctx context.Context, msg Message) {
	data, _ := json.Marshal(msg)
	if err := r.client.LPush(ctx, r.deadKey(), data).Err(); err != nil {
		r.logger.Error("dead-letter message", logger.Error(err))
	}
}

func (r *RedisQueue) retryLoop(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.RetryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.moveDueRetries(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("move due retries", logger.Error(err))
			}
		}
	}
}

// moveDueRetries pushes every retry whose time has come back onto the pending list.
func (r *RedisQueue) moveDueRetries(ctx context.Context) (int, error) {
	due, err := r.client.ZRangeByScore(ctx, r.retryKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(r.now().UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, member := range due {
		pipe := r.client.TxPipeline()
		pipe.ZRem(ctx, r.retryKey(), member)
		pipe.LPush(ctx, r.pendingKey(), member)
		if _, err := pipe.Exec(ctx); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

func (r *RedisQueue) pendingKey() string { return r.prefix + ":pending" }
func (r *RedisQueue) retryKey() string   { return r.prefix + ":retry" }
func (r *RedisQueue) deadKey() string    { return r.prefix + ":dead" }

var _ Publisher = (*RedisQueue)(nil)
