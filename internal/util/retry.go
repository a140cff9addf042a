package util

import (
	"context"
	"time"
)

// Retry calls fn up to attempts times with exponential backoff starting at
// baseDelay. It returns nil on the first successful call, or the last error
// if every attempt fails. Context cancellation is honoured between
// attempts, not during fn itself.
func Retry(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	delay := baseDelay

	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		// No sleep after the final failure.
		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return err
}
