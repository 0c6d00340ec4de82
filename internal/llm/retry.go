package llm

import (
	"context"
	"log/slog"
	"time"
)

// Policy is a reusable retry policy: attempt budget, backoff schedule, and a
// predicate deciding which errors are worth another attempt. Sleep is
// injectable so tests never wait in real time.
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(err error) bool
	Sleep       func(ctx context.Context, d time.Duration) error
}

// ExponentialBackoff returns min(2^attempt, cap) with attempt 0-indexed.
func ExponentialBackoff(cap time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := time.Duration(1<<uint(attempt)) * time.Second
		if d > cap {
			d = cap
		}
		return d
	}
}

// DefaultPolicy is 3 attempts with 1s, 2s, 4s... backoff capped at 30s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff:     ExponentialBackoff(30 * time.Second),
		Retryable:   func(error) bool { return true },
		Sleep:       sleepContext,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.Backoff == nil {
		p.Backoff = ExponentialBackoff(30 * time.Second)
	}
	if p.Retryable == nil {
		p.Retryable = func(error) bool { return true }
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	return p
}

// Do runs fn up to MaxAttempts times. The final failure is returned as-is;
// a non-retryable error short-circuits immediately.
func (p Policy) Do(ctx context.Context, logger *slog.Logger, op string, fn func(attempt int) error) error {
	p = p.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	var err error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if !p.Retryable(err) || attempt == p.MaxAttempts-1 {
			return err
		}
		wait := p.Backoff(attempt)
		logger.Warn(op+".retry",
			"attempt", attempt+1,
			"max_attempts", p.MaxAttempts,
			"backoff", wait.String(),
			"error", err,
		)
		if serr := p.Sleep(ctx, wait); serr != nil {
			return err
		}
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
