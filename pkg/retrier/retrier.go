// Package retrier retries operations with exponential backoff and jitter.
package retrier

import (
	"context"
	"math/rand/v2"
	"time"
)

// Retrier runs an operation until it succeeds, returns a permanent error
// or exhausts its attempts. The zero value is not usable; call New.
type Retrier struct {
	initial    time.Duration
	max        time.Duration
	multiplier float64
	retries    int
	jitter     float64
	retryIf    func(error) bool
	onRetry    func(attempt int, delay time.Duration, err error)
}

type Option func(*Retrier)

// WithInitialInterval sets the delay before the first retry.
func WithInitialInterval(d time.Duration) Option {
	return func(r *Retrier) { r.initial = d }
}

// WithMaxInterval caps the delay between attempts.
func WithMaxInterval(d time.Duration) Option {
	return func(r *Retrier) { r.max = d }
}

func WithMultiplier(m float64) Option {
	return func(r *Retrier) { r.multiplier = m }
}

// WithMaxRetries sets how many times a failed call is repeated, so the
// operation runs at most n+1 times.
func WithMaxRetries(n int) Option {
	return func(r *Retrier) { r.retries = n }
}

// WithJitter spreads each delay by up to ±j of its value (0 ≤ j ≤ 1).
func WithJitter(j float64) Option {
	return func(r *Retrier) { r.jitter = j }
}

// WithRetryIf retries only errors for which fn returns true; other errors
// are returned immediately.
func WithRetryIf(fn func(error) bool) Option {
	return func(r *Retrier) { r.retryIf = fn }
}

// WithOnRetry registers a hook called before every sleep.
func WithOnRetry(fn func(attempt int, delay time.Duration, err error)) Option {
	return func(r *Retrier) { r.onRetry = fn }
}

func New(opts ...Option) *Retrier {
	r := &Retrier{
		initial:    time.Second,
		max:        30 * time.Second,
		multiplier: 2,
		retries:    5,
		jitter:     0.1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Backoff returns the nominal delay before retry number attempt (1-based),
// without jitter.
func (r *Retrier) Backoff(attempt int) time.Duration {
	d := float64(r.initial)
	for range attempt - 1 {
		d *= r.multiplier
		if d >= float64(r.max) {
			return r.max
		}
	}
	return min(time.Duration(d), r.max)
}

func (r *Retrier) delay(attempt int) time.Duration {
	d := r.Backoff(attempt)
	if r.jitter > 0 {
		d += time.Duration((rand.Float64()*2 - 1) * r.jitter * float64(d))
	}
	return max(d, 0)
}

// Do calls fn until it succeeds. The last error is returned once retries
// run out; ctx cancellation during a sleep returns ctx.Err().
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	for attempt := 1; err != nil && attempt <= r.retries; attempt++ {
		if r.retryIf != nil && !r.retryIf(err) {
			return err
		}

		d := r.delay(attempt)
		if r.onRetry != nil {
			r.onRetry(attempt, d, err)
		}
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		err = fn(ctx)
	}
	return err
}

// DoWithData is Do for operations that produce a value.
func DoWithData[T any](r *Retrier, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}
