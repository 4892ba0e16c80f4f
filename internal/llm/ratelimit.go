package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// rateLimiter is a token bucket refilled lazily from the elapsed time, so
// it needs no background goroutine.
type rateLimiter struct {
	now      func() time.Time
	last     time.Time
	tokens   float64
	capacity float64
	perSec   float64
	mu       sync.Mutex
}

// newRateLimiter allows requestsPerMinute calls with bursts up to the same size.
func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	capacity := float64(requestsPerMinute)
	return &rateLimiter{
		now:      time.Now,
		last:     time.Now(),
		tokens:   capacity,
		capacity: capacity,
		perSec:   capacity / 60,
	}
}

// reserve takes a token if one is available and otherwise reports how long
// until the next one.
func (rl *rateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.tokens = min(rl.capacity, rl.tokens+now.Sub(rl.last).Seconds()*rl.perSec)
	rl.last = now

	if rl.tokens >= 1 {
		rl.tokens--
		return 0
	}
	missing := 1 - rl.tokens
	return time.Duration(missing / rl.perSec * float64(time.Second))
}

func (rl *rateLimiter) tryAcquire() bool {
	return rl.reserve() == 0
}

// wait blocks until a token is taken or ctx is done.
func (rl *rateLimiter) wait(ctx context.Context) error {
	for {
		delay := rl.reserve()
		if delay == 0 {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}
