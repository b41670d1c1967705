package llm

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/kiosk404/quickgpt/internal/pkg/options"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
	"github.com/kiosk404/quickgpt/pkg/logger"
)

// Backoff retries rate limit and network failures with exponential delays.
type Backoff struct {
	opts  *options.RetryOptions
	sleep func(ctx context.Context, d time.Duration) error
}

func NewBackoff(opts *options.RetryOptions) *Backoff {
	if opts == nil {
		opts = options.NewRetryOptions()
	}
	return &Backoff{opts: opts, sleep: sleepContext}
}

// Do runs fn until it succeeds, returns a non-retryable error, or attempts run out.
func (b *Backoff) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	attempts := b.opts.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !entity.IsRetryable(err) {
			return err
		}
		lastErr = err

		if attempt < attempts {
			delay := b.Delay(attempt)
			logger.Warn("[Adapter] attempt %d/%d failed (%v), retrying in %s", attempt, attempts, err, delay.Round(time.Millisecond))
			if err := b.sleep(ctx, delay); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}

// Delay is the wait after the given 1-based attempt, with up to 10% jitter.
func (b *Backoff) Delay(attempt int) time.Duration {
	delay := time.Duration(float64(b.opts.BaseDelay) * math.Pow(b.opts.Multiplier, float64(attempt-1)))
	if delay > b.opts.MaxDelay {
		delay = b.opts.MaxDelay
	}
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.1)
	return delay + jitter
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
