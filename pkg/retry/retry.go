// Package retry runs an operation with exponential backoff. It is used for
// publishing booking events, where a broker hiccup must not lose a notice.
package retry

import (
	"context"
	"errors"
	"fmt"
	"roomly/pkg/logger"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type Config struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	// Jitter is the randomization factor applied to each interval, 0 to 1.
	Jitter float64
}

func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:       3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.2,
	}
}

type Retryable[T any] func(ctx context.Context) (T, error)

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns it on the first attempt.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do runs fn until it succeeds, returns a permanent error, the context ends or
// the attempts run out.
func Do[T any](ctx context.Context, cfg *Config, log *logger.Logger, op string, fn Retryable[T]) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	attempt := 0
	result, err := backoff.Retry(ctx,
		func() (T, error) {
			attempt++
			res, err := fn(ctx)
			if err != nil && IsPermanent(err) {
				return res, backoff.Permanent(err)
			}
			return res, err
		},
		backoff.WithBackOff(newBackOff(cfg)),
		backoff.WithMaxTries(uint(max(cfg.MaxAttempts, 1))),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Warn("operation failed, retrying",
				"operation", op,
				"attempt", attempt,
				"max_attempts", cfg.MaxAttempts,
				"backoff", wait,
				"error", err,
			)
		}),
	)
	switch {
	case err == nil:
		return result, nil
	case IsPermanent(err):
		return zero, err
	case ctx.Err() != nil:
		return zero, ctx.Err()
	default:
		return zero, fmt.Errorf("operation '%s' failed after %d attempts: %w", op, attempt, err)
	}
}

// Run is Do for operations without a result.
func Run(ctx context.Context, cfg *Config, log *logger.Logger, op string, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, cfg, log, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func newBackOff(cfg *Config) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialBackoff
	b.MaxInterval = cfg.MaxBackoff
	b.Multiplier = cfg.BackoffMultiplier
	b.RandomizationFactor = cfg.Jitter
	b.Reset()
	return b
}
