package utils

import (
	"context"
	"time"
)

// Sleep blocks for d or until ctx is cancelled, whichever comes first.
// It returns ctx.Err() when the wait was cut short so callers can stop
// mid-sequence instead of finishing a stale action.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryDelay returns the wait before retry attempt (1-based). The delay
// doubles from base on each attempt and never exceeds max.
func RetryDelay(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		d = max
	}
	return d
}
