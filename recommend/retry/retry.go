// Package retry provides the bounded retry-with-backoff wrapper used around
// external collaborators (embedding, explanation, backing store). Ranking
// stays free of retry logic so it remains pure and independently testable.
package retry

import (
	"context"
	"time"
)

const (
	// DefaultAttempts is the bounded number of tries for an external call.
	DefaultAttempts = 3

	// DefaultBackoff is the initial wait; it doubles after every failure.
	DefaultBackoff = time.Second
)

// Do runs fn up to attempts times, sleeping backoff, 2*backoff, 4*backoff, ...
// between failures. It returns the last error when every attempt fails, and
// stops early when ctx is done.
func Do(ctx context.Context, attempts int, backoff time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	wait := backoff
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
		}

		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}
