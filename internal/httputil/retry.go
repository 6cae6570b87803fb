package httputil

import (
	"context"
	"math/rand"
	"time"
)

// Retry executes fn up to maxAttempts times with jittered exponential
// backoff. The base delay doubles after each failed attempt and gains a
// random jitter of 0-50% so repeated runs do not convoy against a
// throttled API. Only read-only calls should go through here; a retried
// mutation could double-file issues on an ambiguous failure.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		if ctx.Err() != nil {
			return lastErr
		}
		var jitter time.Duration
		if delay > 1 {
			jitter = time.Duration(rand.Int63n(int64(delay / 2)))
		}
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay + jitter):
		}
		delay *= 2
	}
	return lastErr
}
