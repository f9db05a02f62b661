package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
)

// DefaultRetryDelay is the pause between attempts when [WithDelay] is not given.
const DefaultRetryDelay = time.Second

// Timer supplies the channel a retry waits on between attempts.
type Timer interface {
	After(time.Duration) <-chan time.Time
}

// RetryOption is a functional option for [FetchRetry].
type RetryOption func(*retryOpts) error

type retryOpts struct {
	delay         time.Duration
	timer         Timer
	transientOnly bool
}

// WithDelay sets the fixed pause between attempts.
func WithDelay(d time.Duration) RetryOption {
	return func(opts *retryOpts) error {
		if d < 0 {
			return errors.New("delay must not be negative")
		}
		opts.delay = d
		return nil
	}
}

// WithTimer replaces the clock used to wait between attempts.
func WithTimer(t Timer) RetryOption {
	return func(opts *retryOpts) error {
		if t == nil {
			return errors.New("timer must not be nil")
		}
		opts.timer = t
		return nil
	}
}

// WithTransientOnly stops retrying as soon as an attempt fails with an
// error [IsTransient] rejects.
func WithTransientOnly() RetryOption {
	return func(opts *retryOpts) error {
		opts.transientOnly = true
		return nil
	}
}

// FetchRetry runs [Fetch] up to attempts times, pausing for a constant
// delay between failed attempts. Every kind of failure is retried unless
// [WithTransientOnly] is given. When all attempts fail the error of the
// last attempt is returned as is. Cancelling ctx while waiting ends the
// chain with the context's error.
func FetchRetry[T any](ctx context.Context, c *Client, r Resource[T], attempts int, optFns ...RetryOption) (T, error) {
	var zero T

	if attempts < 1 {
		return zero, fmt.Errorf("%w: got %d", ErrInvalidAttempts, attempts)
	}

	opts := retryOpts{delay: DefaultRetryDelay}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return zero, fmt.Errorf("applying retry option: %w", err)
		}
	}

	retryOptions := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(opts.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if int(n)+1 >= attempts {
				return
			}
			c.logger.Warn("fetch attempt failed",
				"environment", c.env.name,
				"path", r.path,
				"attempt", n+1,
				"attempts", attempts,
				"delay", opts.delay.String(),
				"error", err,
			)
		}),
	}
	if opts.timer != nil {
		retryOptions = append(retryOptions, retry.WithTimer(opts.timer))
	}
	if opts.transientOnly {
		retryOptions = append(retryOptions, retry.RetryIf(IsTransient))
	}

	return retry.DoWithData(func() (T, error) {
		return Fetch(ctx, c, r)
	}, retryOptions...)
}
