package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	lim  *rate.Limiter
	last time.Time
}

// Limiter keeps one token bucket per key, e.g. per client IP or per platform.
type Limiter struct {
	mu    sync.Mutex
	m     map[string]*entry
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time
}

// New creates a limiter allowing rps events per second per key with the given burst.
// rps <= 0 disables limiting.
func New(rps float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	lim := rate.Limit(rps)
	if rps <= 0 {
		lim = rate.Inf
	}
	return &Limiter{
		m:     make(map[string]*entry),
		limit: lim,
		burst: burst,
		idle:  10 * time.Minute,
		now:   time.Now,
	}
}

// Every builds a limiter that admits one event per interval per key.
func Every(interval time.Duration) *Limiter {
	if interval <= 0 {
		return New(0, 1)
	}
	l := New(1, 1)
	l.limit = rate.Every(interval)
	return l
}

// Allow reports whether one event for key may happen now.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	return l.get(key, now).AllowN(now, 1)
}

func (l *Limiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.m[key]
	if !ok {
		if len(l.m) > 1024 {
			l.sweepLocked(now)
		}
		e = &entry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.m[key] = e
	}
	e.last = now
	return e.lim
}

// sweepLocked forgets keys idle for longer than l.idle.
func (l *Limiter) sweepLocked(now time.Time) {
	for k, e := range l.m {
		if now.Sub(e.last) > l.idle {
			delete(l.m, k)
		}
	}
}

// Keys returns how many keys are tracked.
func (l *Limiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
