package approval

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestStatusFinal(t *testing.T) {
	cases := []struct {
		status Status
		final  bool
	}{
		{Approved(), true},
		{Denied("no"), true},
		{TimedOut(), true},
		{Pending(), false},
	}
	for _, tc := range cases {
		if got := tc.status.Final(); got != tc.final {
			t.Errorf("Final() for %s = %v, want %v", tc.status.State, got, tc.final)
		}
	}
}

func TestDeniedCarriesReason(t *testing.T) {
	s := Denied("too risky")
	if s.Reason != "too risky" {
		t.Errorf("reason = %q", s.Reason)
	}
}

func TestNewApprovalRequest(t *testing.T) {
	pid := uuid.New()
	req := NewApprovalRequest(pid, "call-1", "Bash", []byte(`{"command":"ls"}`))

	if req.ID == "" {
		t.Error("request id is empty")
	}
	if req.Kind != KindApproval {
		t.Errorf("kind = %s, want %s", req.Kind, KindApproval)
	}
	if req.ExecutionProcessID != pid {
		t.Error("process id not carried")
	}
	if got := req.TimeoutAt.Sub(req.CreatedAt); got != DefaultTimeout {
		t.Errorf("timeout window = %s, want %s", got, DefaultTimeout)
	}
}

func TestNewQuestionRequest(t *testing.T) {
	req := NewQuestionRequest(uuid.New(), "call-2", []Question{{Question: "Which one?"}})

	if req.Kind != KindQuestion {
		t.Errorf("kind = %s, want %s", req.Kind, KindQuestion)
	}
	if len(req.Questions) != 1 {
		t.Errorf("questions = %d, want 1", len(req.Questions))
	}
	if req.TimeoutAt.Before(time.Now()) {
		t.Error("timeout already in the past")
	}
}

func TestRequestIDsAreUnique(t *testing.T) {
	a := NewApprovalRequest(uuid.New(), "c", "Bash", nil)
	b := NewApprovalRequest(uuid.New(), "c", "Bash", nil)
	if a.ID == b.ID {
		t.Error("two requests share an id")
	}
}
