package decision

import (
	"context"
	"sync"
)

// Waiter is a multicast, memoizing future for a decision's outcome. Any
// number of callers may wait; all observe the same outcome exactly once
// each, including callers that attach after resolution. Resolution is a
// one-time write: later attempts are rejected without side effects, so an
// abandoned waiter can never block or panic a resolver.
type Waiter struct {
	mu       sync.Mutex
	done     chan struct{}
	outcome  Outcome
	resolved bool
}

func newWaiter() *Waiter {
	return &Waiter{done: make(chan struct{})}
}

// tryResolve performs the one-time write of the outcome. beforeSignal runs
// inside the winning attempt before the completion signal is delivered, so
// side effects (terminal log patch, completed-set insert) are observable by
// anyone woken by the signal. Returns false if already resolved.
func (w *Waiter) tryResolve(outcome Outcome, beforeSignal func()) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.resolved {
		return false
	}
	if beforeSignal != nil {
		beforeSignal()
	}
	w.outcome = outcome
	w.resolved = true
	close(w.done)
	return true
}

// Done returns a channel closed once the decision is resolved.
func (w *Waiter) Done() <-chan struct{} {
	return w.done
}

// Wait suspends until the decision resolves or ctx is cancelled.
func (w *Waiter) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-w.done:
		return w.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Peek returns the outcome without blocking, reporting whether the
// decision has resolved.
func (w *Waiter) Peek() (Outcome, bool) {
	select {
	case <-w.done:
		return w.outcome, true
	default:
		return Outcome{}, false
	}
}
