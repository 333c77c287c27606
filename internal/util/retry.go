package util

import (
	"context"
	"fmt"
	"time"
)

// RetryWithBackoff runs fn up to maxRetries+1 times, sleeping
// exponentially longer between attempts (1s, 2s, 4s, ...). fn receives
// the 0-indexed attempt number. A cancelled context cuts the backoff
// wait short and surfaces the context error instead of fn's.
func RetryWithBackoff(ctx context.Context, maxRetries int, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}

		if attempt == maxRetries {
			break
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		backoff := time.Duration(1<<attempt) * time.Second
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", maxRetries+1, lastErr)
}
