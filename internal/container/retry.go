// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryWithBackoff retries op up to maxAttempts times with exponential backoff.
// The controller never retries on its own; callers opt in with this helper.
//
// op returns (shouldRetry bool, err error). If shouldRetry is false, err is
// returned immediately (nil on success, non-nil on permanent failure).
// On retry exhaustion, the last error is returned. Cancelling ctx aborts the
// backoff sleep.
func RetryWithBackoff(
	ctx context.Context,
	maxAttempts int,
	baseBackoff time.Duration,
	op func(attempt int) (retry bool, err error),
) error {
	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			timer := time.NewTimer(baseBackoff * time.Duration(1<<(attempt-1)))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("retry aborted: %w", ctx.Err())
			case <-timer.C:
			}
		}

		retry, err := op(attempt)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// RetryTransient runs fn until it succeeds, fails permanently, or maxAttempts is
// reached. Only errors classified by IsTransientError are retried.
//
// A failed start can leave a created container behind, so a retry that fails
// with ErrAlreadyExists after a transient failure stops and returns the earlier
// failure, which is the one that explains what went wrong.
func RetryTransient(ctx context.Context, maxAttempts int, baseBackoff time.Duration, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var prev error
	return RetryWithBackoff(ctx, maxAttempts, baseBackoff, func(int) (bool, error) {
		err := fn()
		if prev != nil && errors.Is(err, ErrAlreadyExists) {
			return false, prev
		}
		prev = err
		return IsTransientError(err), err
	})
}
