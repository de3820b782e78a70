package decision

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/internal/approval"
)

// resolveWhenPending waits for a decision to appear in the registry and
// resolves it, standing in for the human side of the flow.
func resolveWhenPending(t *testing.T, r *Registry, outcome Outcome) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if pending := r.Pending(); len(pending) > 0 {
			if _, err := r.Resolve(pending[0].Request.ID, outcome); err != nil {
				t.Errorf("resolve failed: %v", err)
			}
			return
		}
		select {
		case <-deadline:
			t.Error("no decision appeared in the registry")
			return
		case <-time.After(time.Millisecond):
		}
	}
}

func TestHumanApprovalServiceApproved(t *testing.T) {
	r := NewRegistry()
	svc := NewHumanApprovalService(r, nil, uuid.New(), nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		resolveWhenPending(t, r, ApprovalOutcome(approval.Approved()))
	}()

	status, err := svc.RequestToolApproval(context.Background(), "Bash", nil, "call-1")
	wg.Wait()
	if err != nil {
		t.Fatalf("RequestToolApproval() failed: %v", err)
	}
	if status.State != approval.StateApproved {
		t.Errorf("status = %s, want approved", status.State)
	}
}

func TestHumanApprovalServiceTimedOutIsAValue(t *testing.T) {
	r := NewRegistry()
	svc := NewHumanApprovalService(r, nil, uuid.New(), nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		resolveWhenPending(t, r, TimedOut(approval.KindApproval))
	}()

	status, err := svc.RequestToolApproval(context.Background(), "Bash", nil, "call-1")
	wg.Wait()
	if err != nil {
		t.Fatalf("a timeout must be a status, not an error: %v", err)
	}
	if status.State != approval.StateTimedOut {
		t.Errorf("status = %s, want timed_out", status.State)
	}
}

func TestRequestTimeoutOptionShortensDeadline(t *testing.T) {
	r := NewRegistry()
	svc := NewHumanApprovalService(r, nil, uuid.New(), nil, WithRequestTimeout(20*time.Millisecond))

	// No human responds; the configured window expires and the racer
	// resolves the decision.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	status, err := svc.RequestToolApproval(ctx, "Bash", nil, "call-1")
	if err != nil {
		t.Fatalf("RequestToolApproval() failed: %v", err)
	}
	if status.State != approval.StateTimedOut {
		t.Errorf("status = %s, want timed_out", status.State)
	}
}

func TestHumanApprovalServiceContextCancelled(t *testing.T) {
	r := NewRegistry()
	svc := NewHumanApprovalService(r, nil, uuid.New(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.RequestToolApproval(ctx, "Bash", nil, "call-1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context deadline", err)
	}
}

func TestHumanApprovalServiceNilRegistry(t *testing.T) {
	svc := &HumanApprovalService{}
	_, err := svc.RequestToolApproval(context.Background(), "Bash", nil, "call-1")
	if !errors.Is(err, approval.ErrServiceUnavailable) {
		t.Errorf("err = %v, want ErrServiceUnavailable", err)
	}
}

func TestHumanQuestionServiceAnswered(t *testing.T) {
	r := NewRegistry()
	pid := uuid.New()
	svc := NewHumanQuestionService(r, nil, pid, nil)

	resp := approval.Response{
		ExecutionProcessID: pid,
		Answers:            []approval.Answer{{QuestionIndex: 0, SelectedOptions: []int{0}}},
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		resolveWhenPending(t, r, QuestionOutcome(resp))
	}()

	got, err := svc.RequestUserQuestion(context.Background(), "call-q", []approval.Question{
		{Question: "Proceed?", Options: []approval.Option{{Label: "Yes"}}},
	})
	wg.Wait()
	if err != nil {
		t.Fatalf("RequestUserQuestion() failed: %v", err)
	}
	if len(got.Answers) != 1 {
		t.Errorf("answers = %d, want 1", len(got.Answers))
	}
}

func TestHumanQuestionServiceTimeoutIsError(t *testing.T) {
	r := NewRegistry()
	svc := NewHumanQuestionService(r, nil, uuid.New(), nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		resolveWhenPending(t, r, TimedOut(approval.KindQuestion))
	}()

	_, err := svc.RequestUserQuestion(context.Background(), "call-q", []approval.Question{
		{Question: "Proceed?"},
	})
	wg.Wait()
	if !errors.Is(err, approval.ErrTimedOut) {
		t.Errorf("err = %v, want ErrTimedOut", err)
	}
}
