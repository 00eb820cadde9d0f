package delivery

import (
	"context"
	"time"
)

// Outcome says how a raced call ended.
type Outcome int

const (
	// OutcomeDone means fn returned before the deadline. Its error, if any,
	// is returned alongside.
	OutcomeDone Outcome = iota

	// OutcomeTimedOut means the deadline won the race. fn keeps running until
	// its context is cancelled; its eventual result is discarded.
	OutcomeTimedOut
)

func (o Outcome) String() string {
	if o == OutcomeTimedOut {
		return "timed_out"
	}
	return "done"
}

// Race runs fn against a timer. If fn returns first, Race returns
// (OutcomeDone, fn's error). If the timer fires first, Race returns
// (OutcomeTimedOut, nil) immediately and cancels fn's context.
//
// This is the single timeout mechanism for all best-effort outbound calls:
// the submit handler races the primary submission against 1.5s before falling
// back, and the conversion tracking call against 2s before redirecting. The
// contract is "never block the user on a collaborator", and having it in one
// combinator makes that contract testable in isolation.
func Race(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) (Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(ctx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return OutcomeDone, err
	case <-timer.C:
		return OutcomeTimedOut, nil
	case <-ctx.Done():
		return OutcomeTimedOut, ctx.Err()
	}
}
