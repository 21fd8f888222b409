package utils

import (
	"context"
	"fmt"
	"time"
)

// Retry executes fn up to attempts times with a fixed delay between
// attempts, stopping early on success or context cancellation.
//
// Returns nil if fn succeeds within the attempt limit, the context error if
// ctx is cancelled while waiting, or the last error wrapped once all
// attempts are exhausted.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
