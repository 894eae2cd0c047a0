// Package retry re-runs a call with a linear or capped exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/bitcoin-sv/btcx/ulogger"
)

type retryOptions struct {
	message             string
	retryCount          int
	infinite            bool
	backoffMultiplier   int
	backoffDurationType time.Duration
	exponential         bool
	backoffFactor       float64
	maxBackoff          time.Duration
	retryIf             func(error) bool
}

type Options func(*retryOptions)

func WithMessage(message string) Options {
	return func(o *retryOptions) {
		o.message = message
	}
}

func WithRetryCount(count int) Options {
	return func(o *retryOptions) {
		o.retryCount = count
	}
}

func WithInfiniteRetry() Options {
	return func(o *retryOptions) {
		o.infinite = true
	}
}

func WithBackoffMultiplier(multiplier int) Options {
	return func(o *retryOptions) {
		o.backoffMultiplier = multiplier
	}
}

func WithBackoffDurationType(d time.Duration) Options {
	return func(o *retryOptions) {
		o.backoffDurationType = d
	}
}

func WithExponentialBackoff() Options {
	return func(o *retryOptions) {
		o.exponential = true
	}
}

func WithBackoffFactor(factor float64) Options {
	return func(o *retryOptions) {
		o.backoffFactor = factor
	}
}

func WithMaxBackoff(d time.Duration) Options {
	return func(o *retryOptions) {
		o.maxBackoff = d
	}
}

// WithRetryIf stops retrying as soon as fn returns false for an error.
func WithRetryIf(fn func(error) bool) Options {
	return func(o *retryOptions) {
		o.retryIf = fn
	}
}

// Retry calls f until it succeeds, the attempts are used up, a non retryable
// error is returned or ctx is done. The last error is returned.
func Retry[T any](ctx context.Context, logger ulogger.Logger, f func() (T, error), opts ...Options) (T, error) {
	o := &retryOptions{
		message:             "retrying",
		retryCount:          3,
		backoffMultiplier:   2,
		backoffDurationType: time.Second,
		backoffFactor:       2.0,
		maxBackoff:          30 * time.Second,
	}

	for _, opt := range opts {
		opt(o)
	}

	var (
		result T
		err    error
	)

	backoff := o.backoffDurationType

	for i := 0; o.infinite || i < o.retryCount; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}

		result, err = f()
		if err == nil {
			return result, nil
		}

		if o.retryIf != nil && !o.retryIf(err) {
			return result, err
		}

		if !o.infinite && i == o.retryCount-1 {
			break
		}

		logger.Warnf("%s (attempt %d): %v", o.message, i+1, err)

		if o.exponential {
			if err = sleepFunc(ctx, backoff); err != nil {
				return result, err
			}

			backoff = CappedExponentialBackoff(backoff, o.backoffFactor, o.maxBackoff)
		} else if err = BackoffAndSleep(ctx, i, o.backoffMultiplier, o.backoffDurationType); err != nil {
			return result, err
		}
	}

	return result, err
}
