package pipeline

import (
	"context"
	"time"

	"github.com/phuslu/log"
)

// StepRunner executes a named pipeline stage. Implementations own the retry
// policy; stages are written to be safe to re-run wholly (idempotent writes
// keyed by stable IDs). The production queue provides the same semantics;
// RetryRunner mirrors them in-process.
type StepRunner interface {
	Run(ctx context.Context, name string, fn func(context.Context) error) error
}

// Step adapts a value-returning stage to the runner. The stage's output is
// only kept when the runner reports success.
func Step[T any](ctx context.Context, r StepRunner, name string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := r.Run(ctx, name, func(c context.Context) error {
		v, err := fn(c)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// RetryRunner retries a failed step with exponential backoff up to
// MaxAttempts, then surfaces the last error as fatal for the job.
type RetryRunner struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      log.Logger
}

func NewRetryRunner(maxAttempts int, logger log.Logger) *RetryRunner {
	if maxAttempts <= 0 {
		maxAttempts = 4
	}
	return &RetryRunner{MaxAttempts: maxAttempts, BaseDelay: time.Second, Logger: logger}
}

func (r *RetryRunner) Run(ctx context.Context, name string, fn func(context.Context) error) error {
	var lastErr error
	delay := r.BaseDelay

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		if attempt > 1 {
			r.Logger.Warn().Str("step", name).Int("attempt", attempt).Err(lastErr).Msg("retrying step")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}

	r.Logger.Error().Str("step", name).Err(lastErr).Msg("step failed after all attempts")
	return lastErr
}
