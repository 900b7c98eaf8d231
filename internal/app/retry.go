package service

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/repository"
)

// RetryConfig controls retries of whole-period writes with exponential
// backoff and jitter.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration
	// MaxBackoff caps the delay.
	MaxBackoff time.Duration
	// Multiplier scales the delay after each attempt.
	Multiplier float64
	// JitterFraction adds ± this fraction of the delay.
	JitterFraction float64
	// ShouldRetry overrides the default, which retries ErrStaleState only.
	ShouldRetry func(err error) bool
	// OnRetry runs before each sleep.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig returns the retry policy for period replaces.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
}

func isStale(err error) bool { return errors.Is(err, repository.ErrStaleState) }

func (c RetryConfig) withDefaults() RetryConfig {
	d := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = d.MaxBackoff
	}
	if c.Multiplier <= 0 {
		c.Multiplier = d.Multiplier
	}
	if c.JitterFraction < 0 {
		c.JitterFraction = 0
	}
	if c.ShouldRetry == nil {
		c.ShouldRetry = isStale
	}
	return c
}

// retry runs fn until it succeeds, returns a non-retryable error, runs out
// of attempts or ctx is done. The last error is returned.
func retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil || !cfg.ShouldRetry(lastErr) {
			return lastErr
		}
		if attempt >= cfg.MaxAttempts-1 {
			break
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, lastErr)
		}

		timer := time.NewTimer(backoff(attempt, cfg))
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}

func backoff(attempt int, cfg RetryConfig) time.Duration {
	delay := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(attempt))
	if delay > float64(cfg.MaxBackoff) {
		delay = float64(cfg.MaxBackoff)
	}
	if cfg.JitterFraction > 0 {
		delay += (rand.Float64()*2 - 1) * delay * cfg.JitterFraction
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
