package decision

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arbiterhq/arbiter/internal/approval"
	"github.com/arbiterhq/arbiter/internal/events"
	"github.com/arbiterhq/arbiter/internal/logs"
)

// Pending is one outstanding decision awaiting a human outcome.
type Pending struct {
	Request approval.Request
	// EntryIndex is the position of the correlated tool-use entry in the
	// conversation log, or -1 when correlation found no match.
	EntryIndex int
	// Entry is a snapshot of the correlated entry at match time, used to
	// compute the terminal patch.
	Entry  logs.Entry
	waiter *Waiter
}

// Correlated reports whether a tool-use entry was claimed for this decision.
func (p *Pending) Correlated() bool {
	return p.EntryIndex >= 0
}

// TaskReviewer moves the task owning an execution process in and out of
// review around a decision. Implementations tolerate unknown processes.
type TaskReviewer interface {
	MarkInReview(processID uuid.UUID) error
	MarkInProgress(processID uuid.UUID) error
}

// Auditor records terminal decision outcomes. Failures are the auditor's
// problem; the registry never blocks on it.
type Auditor interface {
	RecordDecision(req approval.Request, outcome Outcome)
}

// Registry coordinates pending decisions. Register and Resolve are
// linearizable per decision id; operations on distinct ids proceed in
// parallel with no global lock.
type Registry struct {
	pending   *xsync.MapOf[string, *Pending]
	completed *xsync.MapOf[string, Outcome]
	stores    *xsync.MapOf[uuid.UUID, *logs.Store]
	publisher events.Publisher
	reviewer  TaskReviewer
	auditor   Auditor
	logger    *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithPublisher sets the event publisher for decision lifecycle events.
func WithPublisher(p events.Publisher) Option {
	return func(r *Registry) { r.publisher = p }
}

// WithTaskReviewer sets the task status collaborator.
func WithTaskReviewer(tr TaskReviewer) Option {
	return func(r *Registry) { r.reviewer = tr }
}

// WithAuditor sets the decision audit collaborator.
func WithAuditor(a Auditor) Option {
	return func(r *Registry) { r.auditor = a }
}

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry creates an empty decision registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		pending:   xsync.NewMapOf[string, *Pending](),
		completed: xsync.NewMapOf[string, Outcome](),
		stores:    xsync.NewMapOf[uuid.UUID, *logs.Store](),
		publisher: &events.NopPublisher{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AttachStore registers the conversation log for an execution process.
func (r *Registry) AttachStore(processID uuid.UUID, store *logs.Store) {
	r.stores.Store(processID, store)
}

// DetachStore removes the conversation log for an execution process.
func (r *Registry) DetachStore(processID uuid.UUID) {
	r.stores.Delete(processID)
}

// StoreFor returns the conversation log attached for an execution process.
func (r *Registry) StoreFor(processID uuid.UUID) (*logs.Store, bool) {
	return r.stores.Load(processID)
}

// Register admits a decision request. It correlates the request's tool call
// id against the conversation log, reflects the pending state into the log
// when a match exists, inserts the decision atomically (duplicate ids are
// rejected, never overwritten), arms the timeout racer and returns the
// multicast waiter for the outcome.
//
// A failed correlation is not an error: the decision proceeds without log
// reflection so the agent is never blocked by a logging inconsistency.
func (r *Registry) Register(req approval.Request) (*Pending, *Waiter, error) {
	w := newWaiter()
	p := &Pending{Request: req, EntryIndex: -1, waiter: w}

	if store, ok := r.stores.Load(req.ExecutionProcessID); ok {
		if idx, entry, found := findToolUse(store, req.ToolCallID); found {
			var status logs.ToolStatus
			switch req.Kind {
			case approval.KindQuestion:
				status = logs.PendingQuestion(req)
			default:
				status = logs.PendingApproval(req)
			}
			if updated, valid := entry.WithStatus(status); valid {
				if err := store.PushPatch(logs.Replace(idx, updated)); err != nil {
					r.logger.Warn("failed to patch pending status", "request_id", req.ID, "error", err)
				} else {
					p.EntryIndex = idx
					p.Entry = entry
				}
			}
		} else {
			r.logger.Warn("no matching tool use entry for decision request",
				"request_id", req.ID,
				"tool_call_id", req.ToolCallID,
			)
		}
	} else {
		r.logger.Warn("no conversation log attached for execution process",
			"request_id", req.ID,
			"process_id", req.ExecutionProcessID,
		)
	}

	if _, loaded := r.pending.LoadOrStore(req.ID, p); loaded {
		// The rejected register must not keep its claim on the log entry.
		if p.Correlated() {
			if store, ok := r.stores.Load(req.ExecutionProcessID); ok {
				if err := store.PushPatch(logs.Replace(p.EntryIndex, p.Entry)); err != nil {
					r.logger.Warn("failed to revert pending status", "request_id", req.ID, "error", err)
				}
			}
		}
		return nil, nil, approval.ErrDuplicateID
	}

	if r.reviewer != nil {
		if err := r.reviewer.MarkInReview(req.ExecutionProcessID); err != nil {
			r.logger.Warn("failed to move task into review", "request_id", req.ID, "error", err)
		}
	}

	r.publisher.Publish(events.DecisionRequired(req))

	go r.watchTimeout(req.ID, req.Kind, req.TimeoutAt, w)

	r.logger.Debug("registered decision",
		"request_id", req.ID,
		"kind", req.Kind,
		"tool_call_id", req.ToolCallID,
		"correlated", p.Correlated(),
	)
	return p, w, nil
}

// Resolve delivers the terminal outcome for a decision. Exactly one call
// per id succeeds; concurrent losers observe ErrAlreadyCompleted and an id
// that was never registered (or already consumed) yields ErrNotFound.
//
// The winning call records the outcome in the completed set and pushes the
// terminal log patch before the completion signal is delivered, so any
// caller woken by the waiter that then reads the log observes the terminal
// state within the same resolution.
func (r *Registry) Resolve(id string, outcome Outcome) (Outcome, error) {
	p, ok := r.pending.Load(id)
	if !ok {
		if _, done := r.completed.Load(id); done {
			return Outcome{}, approval.ErrAlreadyCompleted
		}
		return Outcome{}, approval.ErrNotFound
	}

	won := p.waiter.tryResolve(outcome, func() {
		r.completed.Store(id, outcome)
		r.patchTerminal(p, outcome)
	})
	r.pending.Delete(id)
	if !won {
		return Outcome{}, approval.ErrAlreadyCompleted
	}

	if r.reviewer != nil && !outcome.IsTimeout() {
		if err := r.reviewer.MarkInProgress(p.Request.ExecutionProcessID); err != nil {
			r.logger.Warn("failed to move task out of review", "request_id", id, "error", err)
		}
	}

	r.publisher.Publish(events.DecisionResolved(p.Request, outcome.String(), outcome.Status.Reason))

	if r.auditor != nil {
		r.auditor.RecordDecision(p.Request, outcome)
	}

	r.logger.Debug("resolved decision", "request_id", id, "outcome", outcome.String())
	return outcome, nil
}

// patchTerminal reflects the outcome into the correlated log entry, if any.
func (r *Registry) patchTerminal(p *Pending, outcome Outcome) {
	if !p.Correlated() {
		return
	}
	store, ok := r.stores.Load(p.Request.ExecutionProcessID)
	if !ok {
		r.logger.Warn("no conversation log attached for execution process",
			"request_id", p.Request.ID,
			"process_id", p.Request.ExecutionProcessID,
		)
		return
	}
	updated, valid := p.Entry.WithStatus(logs.ToolStatus{State: outcome.ToolState()})
	if !valid {
		r.logger.Warn("correlated entry is not a tool use entry", "request_id", p.Request.ID)
		return
	}
	if err := store.PushPatch(logs.Replace(p.EntryIndex, updated)); err != nil {
		r.logger.Warn("failed to patch terminal status", "request_id", p.Request.ID, "error", err)
	}
}

// Awaiter returns the multicast waiter obtained at registration. Calling it
// for an unknown id reports false.
func (r *Registry) Awaiter(id string) (*Waiter, bool) {
	p, ok := r.pending.Load(id)
	if !ok {
		return nil, false
	}
	return p.waiter, true
}

// Completed returns the recorded outcome for an already-resolved decision.
func (r *Registry) Completed(id string) (Outcome, bool) {
	return r.completed.Load(id)
}

// Pending returns a snapshot of all outstanding decisions.
func (r *Registry) Pending() []*Pending {
	var out []*Pending
	r.pending.Range(func(_ string, p *Pending) bool {
		out = append(out, p)
		return true
	})
	return out
}

// PendingCount returns the number of outstanding decisions.
func (r *Registry) PendingCount() int {
	return r.pending.Size()
}
