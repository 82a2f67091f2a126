package resilience

import (
	"context"
	"errors"
	"time"
)

// ErrRetriesExhausted wraps the last attempt error once every retry has been
// spent.
var ErrRetriesExhausted = errors.New("retries exhausted")

// backoffFor returns the delay before the given retry attempt (0-based):
// initial * 2^attempt, capped at max.
func backoffFor(initial, max time.Duration, attempt int) time.Duration {
	if initial <= 0 {
		return 0
	}
	d := initial
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if max > 0 && d > max {
		return max
	}
	return d
}

// sleepCtx waits for d or until the context is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
