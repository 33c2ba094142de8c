package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2,
	}
}

// Retry runs op until it succeeds, returns a non-retryable error, or retries run out.
func Retry[T any](ctx context.Context, cfg RetryConfig, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, err := op(ctx, attempt)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == cfg.MaxRetries {
			break
		}

		t := time.NewTimer(cfg.delay(attempt, err))
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, ctx.Err()
		case <-t.C:
		}
	}
	if IsRetryable(lastErr) && cfg.MaxRetries > 0 {
		return zero, fmt.Errorf("after %d attempts: %w", cfg.MaxRetries+1, lastErr)
	}
	return zero, lastErr
}

func (cfg RetryConfig) delay(attempt int, err error) time.Duration {
	var e *Error
	if errors.As(err, &e) && e.RetryAfter > 0 {
		return e.RetryAfter
	}
	factor := cfg.BackoffFactor
	if factor <= 0 {
		factor = 2
	}
	d := float64(cfg.InitialDelay) * math.Pow(factor, float64(attempt))
	// +/-25% jitter
	d += 0.25 * d * (rand.Float64()*2 - 1)
	if cfg.MaxDelay > 0 && d > float64(cfg.MaxDelay) {
		d = float64(cfg.MaxDelay)
	}
	return time.Duration(d)
}
