package bf4db

import (
	"context"
	"log/slog"
	"time"
)

// RetryPolicy is a bounded retry with a fixed delay between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Do calls fn until it succeeds or MaxAttempts is reached, returning the last error.
// A MaxAttempts below 1 still makes one attempt.
func (p RetryPolicy) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		slog.Warn("Attempt failed, retrying", slog.String("operation", operation),
			slog.Int("attempt", attempt), slog.Int("max_attempts", attempts),
			slog.String("error", err.Error()))

		if p.Delay > 0 {
			timer := time.NewTimer(p.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()

				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	return err
}
