package mmio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrTimeout is matched by every TimeoutError.
var ErrTimeout = errors.New("mmio: poll timed out")

// A TimeoutError reports a completion poll that gave up.
type TimeoutError struct {
	Attempts int
	Elapsed  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("mmio: poll timed out after %d attempts (%s)",
		e.Attempts, e.Elapsed)
}

// Is makes errors.Is(err, ErrTimeout) true.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// PollPolicy bounds a completion poll. A zero MaxAttempts or Timeout leaves
// that bound off; with both off the poll only ends when the condition holds
// or the context is cancelled.
type PollPolicy struct {
	// Interval is the delay before the second attempt. Zero means spin.
	Interval time.Duration

	// Multiplier grows the delay between attempts. Values below 1 are
	// treated as 1.
	Multiplier float64

	// MaxInterval caps the delay between attempts.
	MaxInterval time.Duration

	MaxAttempts int
	Timeout     time.Duration
}

// DefaultPollPolicy waits until the condition holds, backing off from 1us to
// 1ms, and gives up after 5 seconds.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Interval:    time.Microsecond,
		Multiplier:  2,
		MaxInterval: time.Millisecond,
		Timeout:     5 * time.Second,
	}
}

// PollForever spins until the condition holds. Only use it when the
// hardware is known to complete.
func PollForever() PollPolicy {
	return PollPolicy{}
}

// Bounded reports whether the policy can time out on its own.
func (p PollPolicy) Bounded() bool {
	return p.MaxAttempts > 0 || p.Timeout > 0
}

// Delay returns the wait before attempt n (1-based).
func (p PollPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 || p.Interval <= 0 {
		return 0
	}

	m := p.Multiplier
	if m < 1 {
		m = 1
	}

	d := float64(p.Interval) * math.Pow(m, float64(attempt-2))
	if p.MaxInterval > 0 && d > float64(p.MaxInterval) {
		d = float64(p.MaxInterval)
	}

	return time.Duration(d)
}

// Poll calls cond until it returns true, returns an error, the policy bounds
// are exceeded, or ctx is done. It returns the number of attempts made.
func Poll(
	ctx context.Context,
	p PollPolicy,
	cond func() (bool, error),
) (int, error) {
	start := time.Now()

	var deadline <-chan time.Time
	if p.Timeout > 0 {
		timer := time.NewTimer(p.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for attempt := 1; ; attempt++ {
		if d := p.Delay(attempt); d > 0 {
			wait := time.NewTimer(d)
			select {
			case <-ctx.Done():
				wait.Stop()
				return attempt - 1, ctx.Err()
			case <-deadline:
				wait.Stop()
				return attempt - 1, &TimeoutError{attempt - 1, time.Since(start)}
			case <-wait.C:
			}
		} else {
			select {
			case <-ctx.Done():
				return attempt - 1, ctx.Err()
			case <-deadline:
				return attempt - 1, &TimeoutError{attempt - 1, time.Since(start)}
			default:
			}
		}

		done, err := cond()
		if err != nil {
			return attempt, err
		}

		if done {
			return attempt, nil
		}

		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return attempt, &TimeoutError{attempt, time.Since(start)}
		}
	}
}
