package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrRateLimit is returned by an upstream that asked us to slow down.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries wraps the last error once every attempt has failed.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryOptions configures WithRetry. Zero fields take defaults.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = 100 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.Multiplier <= 0 {
		o.Multiplier = 2
	}
	return o
}

func (o RetryOptions) backoff(current time.Duration) time.Duration {
	return min(time.Duration(float64(current)*o.Multiplier), o.MaxDelay)
}

// RetryableError lets callers say explicitly whether an error is transient.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return &RetryableError{Err: err, Retryable: false}
}

func isPermanent(err error) bool {
	var re *RetryableError
	return errors.As(err, &re) && !re.Retryable
}

// WithRetry runs op until it succeeds, returns a permanent error, runs out of
// attempts, or ctx is done. Delays grow exponentially up to MaxDelay; a rate
// limit error jumps straight to MaxDelay.
func WithRetry(ctx context.Context, op func() error, opts RetryOptions) error {
	opts = opts.withDefaults()
	wait := opts.InitialDelay

	var err error
	for attempt := 1; ; attempt++ {
		if err = op(); err == nil || isPermanent(err) {
			return err
		}
		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, attempt, err)
		}
		if errors.Is(err, ErrRateLimit) {
			wait = opts.MaxDelay
		}

		slog.Warn("retrying operation", "attempt", attempt, "of", opts.MaxAttempts, "delay", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait = opts.backoff(wait)
	}
}
