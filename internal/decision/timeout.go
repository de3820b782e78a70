package decision

import (
	"errors"
	"time"

	"github.com/arbiterhq/arbiter/internal/approval"
)

// watchTimeout races the decision's waiter against its deadline. The timer
// winning produces a timed-out resolution through the same Resolve path a
// human response takes, so the two resolution paths cannot both win. A
// deadline already in the past means zero wait, never a negative sleep.
func (r *Registry) watchTimeout(id string, kind approval.Kind, timeoutAt time.Time, w *Waiter) {
	toWait := time.Until(timeoutAt)
	if toWait < 0 {
		toWait = 0
	}
	timer := time.NewTimer(toWait)
	defer timer.Stop()

	select {
	case <-w.Done():
		return
	case <-timer.C:
	}

	// Prefer a substantive outcome that landed in the same instant.
	if _, resolved := w.Peek(); resolved {
		return
	}

	if _, err := r.Resolve(id, TimedOut(kind)); err != nil {
		// Losing the race to a human response is a no-op, not an error.
		if !errors.Is(err, approval.ErrAlreadyCompleted) && !errors.Is(err, approval.ErrNotFound) {
			r.logger.Warn("timeout resolution failed", "request_id", id, "error", err)
		}
		return
	}
	r.logger.Info("decision timed out", "request_id", id, "kind", kind)
}
