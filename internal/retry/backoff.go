// Package retry runs an operation in bounded rounds with a delay
// between them.  Discovery uses it to wait for controllers that are
// still coming up after boot or hot-plug.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ── Permanent errors ─────────────────────────────────────────────────

// PermanentError wraps an error to signal that another round will not
// help.  Return [Permanent](err) from the operation to stop at once.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err has been marked as permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// ExhaustedError is returned when every attempt failed.  It unwraps to
// the last attempt's error so callers can match their own sentinels.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// ── Policy ───────────────────────────────────────────────────────────

// Policy retries an operation a bounded number of times with a fixed
// delay between attempts.
type Policy struct {
	// Delay is the wait between attempts (default 1s).
	Delay time.Duration
	// MaxAttempts is the total number of tries including the first.
	// 0 retries until the context is cancelled.
	MaxAttempts int
	// OnRetry, when set, is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Fixed returns a policy making attempts tries, delay apart.
func Fixed(delay time.Duration, attempts int) *Policy {
	return &Policy{Delay: delay, MaxAttempts: attempts}
}

// Do executes fn until it succeeds, returns a permanent error, or the
// budget (attempts or context) runs out.  attempt is 1-based.  When the
// attempts run out the error is an [*ExhaustedError].
func (p *Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	delay := p.Delay
	if delay <= 0 {
		delay = time.Second
	}

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return errors.Unwrap(err)
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return &ExhaustedError{Attempts: attempt, Err: err}
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
}
