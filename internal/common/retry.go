package common

import (
	"context"
	"time"
)

// RetryPolicy re-runs an operation while its result is considered empty.
// Attempts are bounded; errors are returned immediately.
type RetryPolicy[T any] struct {
	MaxAttempts int
	Delay       time.Duration
	IsEmpty     func(T) bool
}

// Do runs op until IsEmpty reports false or MaxAttempts is reached.
// The last result is returned together with the number of attempts made.
func (p RetryPolicy[T]) Do(ctx context.Context, op func(ctx context.Context, attempt int) (T, error)) (T, int, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var result T
	for attempt := 1; attempt <= attempts; attempt++ {
		var err error
		result, err = op(ctx, attempt)
		if err != nil {
			return result, attempt, err
		}
		if p.IsEmpty == nil || !p.IsEmpty(result) || attempt == attempts {
			return result, attempt, nil
		}

		if p.Delay > 0 {
			timer := time.NewTimer(p.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return result, attempt, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return result, attempts, nil
}
