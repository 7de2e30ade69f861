// Package ratelimit paces and retries outbound remote-API calls.
//
// Two mechanisms compose: a minimum inter-call interval enforced with
// x/time/rate, and exponential-backoff retries for errors classified as
// rate-limit signals. Any other error propagates immediately.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/hubd/internal/logging"
)

// Classifier reports whether an error is a rate-limit signal (HTTP 403/429
// equivalent) worth retrying.
type Classifier func(error) bool

// Config controls pacing and retry behavior. Growth and retry budget are
// independently configurable.
type Config struct {
	// MinInterval is the minimum spacing between successive calls.
	MinInterval time.Duration

	// BaseDelay is the first retry delay; each retry doubles it.
	BaseDelay time.Duration

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration

	// MaxRetries bounds retry attempts; the next rate-limit error after the
	// budget is exhausted propagates.
	MaxRetries int

	// IsRateLimit classifies retryable errors. Nil means nothing retries.
	IsRateLimit Classifier
}

// DefaultConfig returns the default pacing configuration.
func DefaultConfig() Config {
	return Config{
		MinInterval: 100 * time.Millisecond,
		BaseDelay:   time.Second,
		MaxDelay:    60 * time.Second,
		MaxRetries:  5,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.MinInterval == 0 {
		c.MinInterval = d.MinInterval
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = d.MaxRetries
	}
}

// DelayFor returns the backoff delay for a 1-based retry attempt:
// min(base * 2^(attempt-1), max).
func DelayFor(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}

// Limiter wraps outbound calls with pacing and backoff.
type Limiter struct {
	cfg     Config
	pacer   *rate.Limiter
	logger  *logging.Logger
	sleepFn func(context.Context, time.Duration) error
}

// New creates a limiter from config.
func New(cfg Config, logger *logging.Logger) *Limiter {
	cfg.applyDefaults()
	if logger == nil {
		logger = logging.Nop()
	}
	return &Limiter{
		cfg:     cfg,
		pacer:   rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		logger:  logger.Named("ratelimit"),
		sleepFn: sleep,
	}
}

// Do invokes op, pacing the call and retrying rate-limit errors with
// exponential backoff. Non-rate-limit errors and retry exhaustion propagate.
func (l *Limiter) Do(ctx context.Context, op func() error) error {
	var lastErr error

	for attempt := 0; ; attempt++ {
		if err := l.pacer.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}

		err := op()
		if err == nil {
			if attempt > 0 {
				l.logger.Info(ctx, "operation recovered after rate-limit retries",
					zap.Int("attempts", attempt))
			}
			return nil
		}

		if l.cfg.IsRateLimit == nil || !l.cfg.IsRateLimit(err) {
			return err
		}
		lastErr = err

		if attempt >= l.cfg.MaxRetries {
			return fmt.Errorf("rate limited after %d retries: %w", l.cfg.MaxRetries, lastErr)
		}

		delay := DelayFor(attempt+1, l.cfg.BaseDelay, l.cfg.MaxDelay)
		l.logger.Warn(ctx, "rate limit hit, backing off",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", l.cfg.MaxRetries),
			zap.Duration("delay", delay),
			zap.Error(err))
		if err := l.sleepFn(ctx, delay); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
