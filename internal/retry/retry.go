// Package retry provides an exponential-backoff retry wrapper for remote
// calls that fail transiently.
//
// The delay before attempt i+1 is initialDelay * 2^i plus bounded jitter.
// Jitter is drawn from an injectable random source, so tests that pin the
// source to a constant observe the exact geometric sequence.
package retry

import (
	"context"
	"math/rand"
	"time"
)

const (
	// DefaultMaxRetries is the total number of attempts, including the first.
	DefaultMaxRetries = 5
	// DefaultInitialDelay is the base delay before the second attempt.
	DefaultInitialDelay = time.Second
	// DefaultJitterFraction bounds jitter to a fraction of the computed delay.
	DefaultJitterFraction = 0.2
)

// Sleeper suspends for a duration, honoring context cancellation.
// Tests inject a recording implementation to avoid real sleeps.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type policy struct {
	maxRetries int
	initial    time.Duration
	jitterFrac float64
	random     func() float64 // in [0, 1)
	sleeper    Sleeper
}

// Option configures a retry call.
type Option func(*policy)

// WithMaxRetries sets the total number of attempts, including the first.
// Values below 1 are treated as 1 (exactly one attempt, no delay).
func WithMaxRetries(n int) Option {
	return func(p *policy) {
		if n < 1 {
			n = 1
		}
		p.maxRetries = n
	}
}

// WithInitialDelay sets the base delay before the second attempt.
func WithInitialDelay(d time.Duration) Option {
	return func(p *policy) { p.initial = d }
}

// WithJitterFraction sets the maximum jitter as a fraction of each delay.
// Zero disables jitter entirely.
func WithJitterFraction(f float64) Option {
	return func(p *policy) {
		if f < 0 {
			f = 0
		}
		p.jitterFrac = f
	}
}

// WithRandom injects the random source used for jitter.
// The function must return values in [0, 1).
func WithRandom(fn func() float64) Option {
	return func(p *policy) { p.random = fn }
}

// WithSleeper injects the sleeper used between attempts.
func WithSleeper(s Sleeper) Option {
	return func(p *policy) { p.sleeper = s }
}

// Do invokes op until it succeeds or the attempt budget is exhausted.
//
// On success the result is returned immediately; no further attempts run and
// no delay is incurred. After the final allowed attempt fails, the last error
// is returned unchanged - never wrapped - so callers can match on the
// original error type. If the context is cancelled while waiting between
// attempts, the context's error is returned instead.
func Do[T any](ctx context.Context, op func(context.Context) (T, error), opts ...Option) (T, error) {
	p := policy{
		maxRetries: DefaultMaxRetries,
		initial:    DefaultInitialDelay,
		jitterFrac: DefaultJitterFraction,
		random:     rand.Float64,
		sleeper:    timerSleeper{},
	}
	for _, opt := range opts {
		opt(&p)
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == p.maxRetries-1 {
			break
		}
		if err := p.sleeper.Sleep(ctx, p.delay(attempt)); err != nil {
			return zero, err
		}
	}

	return zero, lastErr
}

// delay computes the wait after the given zero-based failed attempt:
// initial * 2^attempt, plus jitter in [0, jitterFrac*delay).
func (p *policy) delay(attempt int) time.Duration {
	d := p.initial << uint(attempt)
	if d <= 0 {
		// Shift overflow; clamp rather than go negative.
		return p.initial
	}
	if p.jitterFrac > 0 {
		d += time.Duration(p.random() * p.jitterFrac * float64(d))
	}
	return d
}
