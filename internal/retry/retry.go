// Package retry runs an operation with exponential backoff. Errors can
// steer the loop through two optional interfaces: Retryable reports whether
// another attempt makes sense at all, and RetryAfter supplies a
// server-mandated wait (rate limiting) that replaces the computed backoff.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultConfig suits short API calls.
var DefaultConfig = Config{
	MaxAttempts: 4,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    5 * time.Minute,
}

type retryableError interface {
	Retryable() bool
}

type retryAfterError interface {
	RetryAfter() (time.Duration, bool)
}

// Do runs op until it succeeds, fails terminally, exhausts the attempt
// budget, or the context ends. The last error is returned as-is so callers
// can still unwrap it.
func Do(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	var err error
	for attempt := 1; ; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if attempt >= cfg.MaxAttempts || !isRetryable(err) {
			return err
		}
		delay := backoff(cfg, attempt)
		var ra retryAfterError
		if errors.As(err, &ra) {
			if wait, ok := ra.RetryAfter(); ok {
				delay = wait
			}
		}
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func isRetryable(err error) bool {
	var r retryableError
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}

// backoff doubles the base delay per attempt with up to 20% jitter so
// concurrent retriers spread out.
func backoff(cfg Config, attempt int) time.Duration {
	delay := cfg.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			return cfg.MaxDelay
		}
	}
	return delay + time.Duration(rand.Int63n(int64(delay)/5+1))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
