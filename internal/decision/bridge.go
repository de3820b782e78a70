package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/internal/approval"
	"github.com/arbiterhq/arbiter/internal/notify"
)

// ServiceOption configures a human-backed service bridge.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	timeout time.Duration
}

// WithRequestTimeout sets how long registered decisions wait for a human
// before the timeout racer resolves them. Non-positive keeps the default.
func WithRequestTimeout(d time.Duration) ServiceOption {
	return func(o *serviceOptions) { o.timeout = d }
}

// HumanApprovalService asks a human for tool approvals through the decision
// registry. One instance serves one execution process.
type HumanApprovalService struct {
	registry  *Registry
	notifier  notify.Notifier
	processID uuid.UUID
	timeout   time.Duration
	logger    *slog.Logger
}

// NewHumanApprovalService creates the human-backed approval service for an
// execution process.
func NewHumanApprovalService(registry *Registry, notifier notify.Notifier, processID uuid.UUID, logger *slog.Logger, opts ...ServiceOption) *HumanApprovalService {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	var o serviceOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &HumanApprovalService{
		registry:  registry,
		notifier:  notifier,
		processID: processID,
		timeout:   o.timeout,
		logger:    logger,
	}
}

// RequestToolApproval registers a pending decision and suspends until a
// human resolves it or the deadline elapses. A timed-out decision is a
// normal status value, not an error.
func (s *HumanApprovalService) RequestToolApproval(ctx context.Context, toolName string, toolInput json.RawMessage, toolCallID string) (approval.Status, error) {
	if s.registry == nil {
		return approval.Status{}, approval.ErrServiceUnavailable
	}

	req := approval.NewApprovalRequest(s.processID, toolCallID, toolName, toolInput).WithTimeout(s.timeout)
	_, waiter, err := s.registry.Register(req)
	if err != nil {
		return approval.Status{}, approval.RequestFailed(err)
	}

	// Fire and forget: a lost notification must not delay the decision.
	go s.notifier.Notify(context.WithoutCancel(ctx),
		"Approval required",
		fmt.Sprintf("Agent wants to run %s", toolName),
	)

	outcome, err := waiter.Wait(ctx)
	if err != nil {
		return approval.Status{}, err
	}
	return outcome.Status, nil
}

// HumanQuestionService asks a human to answer agent questions through the
// decision registry. One instance serves one execution process.
type HumanQuestionService struct {
	registry  *Registry
	notifier  notify.Notifier
	processID uuid.UUID
	timeout   time.Duration
	logger    *slog.Logger
}

// NewHumanQuestionService creates the human-backed question service for an
// execution process.
func NewHumanQuestionService(registry *Registry, notifier notify.Notifier, processID uuid.UUID, logger *slog.Logger, opts ...ServiceOption) *HumanQuestionService {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	var o serviceOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &HumanQuestionService{
		registry:  registry,
		notifier:  notifier,
		processID: processID,
		timeout:   o.timeout,
		logger:    logger,
	}
}

// RequestUserQuestion registers a pending question and suspends until the
// user answers or the deadline elapses. A timeout is surfaced as
// approval.ErrTimedOut.
func (s *HumanQuestionService) RequestUserQuestion(ctx context.Context, toolCallID string, questions []approval.Question) (approval.Response, error) {
	if s.registry == nil {
		return approval.Response{}, approval.ErrServiceUnavailable
	}

	req := approval.NewQuestionRequest(s.processID, toolCallID, questions).WithTimeout(s.timeout)
	_, waiter, err := s.registry.Register(req)
	if err != nil {
		return approval.Response{}, approval.RequestFailed(err)
	}

	plural := ""
	if len(questions) != 1 {
		plural = "s"
	}
	go s.notifier.Notify(context.WithoutCancel(ctx),
		"Question from agent",
		fmt.Sprintf("Agent is asking %d question%s", len(questions), plural),
	)

	outcome, err := waiter.Wait(ctx)
	if err != nil {
		return approval.Response{}, err
	}
	if outcome.Response == nil {
		return approval.Response{}, approval.ErrTimedOut
	}
	return *outcome.Response, nil
}
