package claude

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/arbiterhq/arbiter/internal/approval"
)

type recordingLog struct {
	lines []string
}

func (l *recordingLog) PushRaw(line string) int {
	l.lines = append(l.lines, line)
	return len(l.lines) - 1
}

type stubApprovals struct {
	status approval.Status
	err    error
	calls  int
	tool   string
	callID string
}

func (s *stubApprovals) RequestToolApproval(_ context.Context, toolName string, _ json.RawMessage, toolCallID string) (approval.Status, error) {
	s.calls++
	s.tool = toolName
	s.callID = toolCallID
	return s.status, s.err
}

type stubQuestions struct {
	resp  approval.Response
	err   error
	calls int
}

func (s *stubQuestions) RequestUserQuestion(_ context.Context, _ string, _ []approval.Question) (approval.Response, error) {
	s.calls++
	return s.resp, s.err
}

func TestAutoApproveWithoutBackend(t *testing.T) {
	c := NewClient(&recordingLog{}, nil, nil)

	if !c.AutoApprove() {
		t.Fatal("client without approval backend must auto-approve")
	}

	input := json.RawMessage(`{"command":"ls"}`)
	result, err := c.OnCanUseTool(context.Background(), "Bash", input, nil, "call-1")
	if err != nil {
		t.Fatalf("OnCanUseTool() failed: %v", err)
	}
	if result.Behavior != "allow" {
		t.Errorf("behavior = %s, want allow", result.Behavior)
	}
}

func TestMissingToolUseIDFailsOpen(t *testing.T) {
	approvals := &stubApprovals{status: approval.Denied("no")}
	c := NewClient(&recordingLog{}, approvals, nil)

	result, err := c.OnCanUseTool(context.Background(), "Bash", nil, nil, "")
	if err != nil {
		t.Fatalf("OnCanUseTool() failed: %v", err)
	}
	if result.Behavior != "allow" {
		t.Errorf("behavior = %s, want allow (fail open)", result.Behavior)
	}
	if approvals.calls != 0 {
		t.Error("approval service consulted despite missing tool_use_id")
	}
}

func TestApprovedToolAllowed(t *testing.T) {
	log := &recordingLog{}
	approvals := &stubApprovals{status: approval.Approved()}
	c := NewClient(log, approvals, nil)

	input := json.RawMessage(`{"command":"ls"}`)
	result, err := c.OnCanUseTool(context.Background(), "Bash", input, nil, "call-1")
	if err != nil {
		t.Fatalf("OnCanUseTool() failed: %v", err)
	}
	if result.Behavior != "allow" {
		t.Errorf("behavior = %s, want allow", result.Behavior)
	}
	if string(result.UpdatedInput) != string(input) {
		t.Error("allow result did not echo the input")
	}
	if approvals.callID != "call-1" || approvals.tool != "Bash" {
		t.Errorf("service saw (%s, %s)", approvals.tool, approvals.callID)
	}

	// The decision is mirrored into the raw transcript.
	if len(log.lines) != 1 || !strings.Contains(log.lines[0], "approval_response") {
		t.Errorf("transcript lines = %v", log.lines)
	}
}

func TestDeniedToolUsesReason(t *testing.T) {
	c := NewClient(&recordingLog{}, &stubApprovals{status: approval.Denied("too risky")}, nil)

	result, _ := c.OnCanUseTool(context.Background(), "Bash", nil, nil, "call-1")
	if result.Behavior != "deny" {
		t.Fatalf("behavior = %s, want deny", result.Behavior)
	}
	if result.Message != "too risky" {
		t.Errorf("message = %q", result.Message)
	}
	if result.Interrupt == nil || *result.Interrupt {
		t.Error("deny must set interrupt=false")
	}
}

func TestDeniedToolDefaultReason(t *testing.T) {
	c := NewClient(&recordingLog{}, &stubApprovals{status: approval.Denied("")}, nil)

	result, _ := c.OnCanUseTool(context.Background(), "Bash", nil, nil, "call-1")
	if result.Message != "Denied by user" {
		t.Errorf("message = %q, want default", result.Message)
	}
}

func TestTimedOutToolDenied(t *testing.T) {
	c := NewClient(&recordingLog{}, &stubApprovals{status: approval.TimedOut()}, nil)

	result, _ := c.OnCanUseTool(context.Background(), "Bash", nil, nil, "call-1")
	if result.Behavior != "deny" {
		t.Fatalf("behavior = %s, want deny", result.Behavior)
	}
	if result.Message != "Approval request timed out" {
		t.Errorf("message = %q", result.Message)
	}
}

func TestPendingStatusMappedToDenial(t *testing.T) {
	// A final Pending is a contract violation; the boundary maps it to a
	// deny instead of handing it to the agent.
	c := NewClient(&recordingLog{}, &stubApprovals{status: approval.Pending()}, nil)

	result, _ := c.OnCanUseTool(context.Background(), "Bash", nil, nil, "call-1")
	if result.Behavior != "deny" {
		t.Errorf("behavior = %s, want deny", result.Behavior)
	}
}

func TestServiceErrorDenies(t *testing.T) {
	c := NewClient(&recordingLog{}, &stubApprovals{err: errors.New("boom")}, nil)

	result, err := c.OnCanUseTool(context.Background(), "Bash", nil, nil, "call-1")
	if err != nil {
		t.Fatalf("backend failures must not propagate: %v", err)
	}
	if result.Behavior != "deny" {
		t.Errorf("behavior = %s, want deny", result.Behavior)
	}
}

func TestPreApprovedPatternSkipsService(t *testing.T) {
	log := &recordingLog{}
	approvals := &stubApprovals{status: approval.Denied("should not be asked")}
	c := NewClient(log, approvals, nil, WithAllowedTools([]string{"mcp__github__*", "Read"}))

	result, _ := c.OnCanUseTool(context.Background(), "mcp__github__create_issue", nil, nil, "call-1")
	if result.Behavior != "allow" {
		t.Errorf("behavior = %s, want allow", result.Behavior)
	}
	if approvals.calls != 0 {
		t.Error("pre-approved tool still consulted the service")
	}
	if len(log.lines) != 1 {
		t.Error("pre-approved decision not mirrored into the transcript")
	}

	// Non-matching tools go through the service.
	result, _ = c.OnCanUseTool(context.Background(), "Bash", nil, nil, "call-2")
	if result.Behavior != "deny" || approvals.calls != 1 {
		t.Error("non-matching tool bypassed the service")
	}
}

func TestExitPlanModeEscalatesSession(t *testing.T) {
	c := NewClient(&recordingLog{}, &stubApprovals{status: approval.Approved()}, nil)

	result, _ := c.OnCanUseTool(context.Background(), ExitPlanModeTool, nil, nil, "call-1")
	if result.Behavior != "allow" {
		t.Fatalf("behavior = %s, want allow", result.Behavior)
	}
	if len(result.UpdatedPermissions) != 1 {
		t.Fatalf("permission updates = %d, want 1", len(result.UpdatedPermissions))
	}
	up := result.UpdatedPermissions[0]
	if up.Type != PermissionUpdateTypeSetMode || up.Mode != PermissionModeBypassPermissions || up.Destination != PermissionDestinationSession {
		t.Errorf("unexpected permission update: %+v", up)
	}
}

func TestExitPlanModeDeniedNoEscalation(t *testing.T) {
	c := NewClient(&recordingLog{}, &stubApprovals{status: approval.Denied("stay in plan mode")}, nil)

	result, _ := c.OnCanUseTool(context.Background(), ExitPlanModeTool, nil, nil, "call-1")
	if result.Behavior != "deny" {
		t.Errorf("behavior = %s, want deny", result.Behavior)
	}
	if len(result.UpdatedPermissions) != 0 {
		t.Error("denied ExitPlanMode must not carry permission updates")
	}
}

func TestAskUserQuestionRoutesToQuestionService(t *testing.T) {
	questions := &stubQuestions{resp: approval.Response{
		Answers: []approval.Answer{{QuestionIndex: 0, SelectedOptions: []int{1}}},
	}}
	approvals := &stubApprovals{status: approval.Denied("wrong path")}
	c := NewClient(&recordingLog{}, approvals, questions)

	input := json.RawMessage(`{"questions":[{"question":"Which language?","header":"Lang","options":[{"label":"Go"},{"label":"Rust"}]}]}`)
	result, err := c.OnCanUseTool(context.Background(), AskUserQuestionTool, input, nil, "call-q")
	if err != nil {
		t.Fatalf("OnCanUseTool() failed: %v", err)
	}
	if result.Behavior != "allow" {
		t.Fatalf("behavior = %s, want allow", result.Behavior)
	}
	if questions.calls != 1 || approvals.calls != 0 {
		t.Errorf("calls: questions=%d approvals=%d", questions.calls, approvals.calls)
	}

	var payload struct {
		Answers map[string]any `json:"answers"`
	}
	if err := json.Unmarshal(result.UpdatedInput, &payload); err != nil {
		t.Fatalf("result payload is not JSON: %v", err)
	}
	if payload.Answers["Lang"] != "Rust" {
		t.Errorf("answers = %v", payload.Answers)
	}
}

func TestAskUserQuestionBadInputFallsBackToApproval(t *testing.T) {
	approvals := &stubApprovals{status: approval.Approved()}
	c := NewClient(&recordingLog{}, approvals, &stubQuestions{})

	result, _ := c.OnCanUseTool(context.Background(), AskUserQuestionTool, json.RawMessage(`{"questions":"not-an-array"}`), nil, "call-q")
	if result.Behavior != "allow" {
		t.Errorf("behavior = %s, want allow", result.Behavior)
	}
	if approvals.calls != 1 {
		t.Error("malformed question input did not fall back to approval")
	}
}

func TestQuestionServiceErrorDenies(t *testing.T) {
	questions := &stubQuestions{err: approval.ErrTimedOut}
	c := NewClient(&recordingLog{}, &stubApprovals{}, questions)

	input := json.RawMessage(`{"questions":[{"question":"Proceed?"}]}`)
	result, _ := c.OnCanUseTool(context.Background(), AskUserQuestionTool, input, nil, "call-q")
	if result.Behavior != "deny" {
		t.Fatalf("behavior = %s, want deny", result.Behavior)
	}
	if !strings.Contains(result.Message, "question timed out") {
		t.Errorf("message = %q", result.Message)
	}
}

func TestHookCallbackDecisions(t *testing.T) {
	c := NewClient(&recordingLog{}, &stubApprovals{}, nil)

	out, err := c.OnHookCallback(context.Background(), AutoApproveCallbackID, nil, "call-1")
	if err != nil {
		t.Fatalf("OnHookCallback() failed: %v", err)
	}
	if out.HookSpecificOutput.PermissionDecision != "allow" {
		t.Errorf("reserved callback decision = %s", out.HookSpecificOutput.PermissionDecision)
	}

	out, _ = c.OnHookCallback(context.Background(), "some-other-hook", nil, "call-1")
	if out.HookSpecificOutput.PermissionDecision != "ask" {
		t.Errorf("decision = %s, want ask", out.HookSpecificOutput.PermissionDecision)
	}
	if out.HookSpecificOutput.HookEventName != "PreToolUse" {
		t.Errorf("hook event = %s", out.HookSpecificOutput.HookEventName)
	}
}

func TestHookCallbackAutoApprove(t *testing.T) {
	c := NewClient(&recordingLog{}, nil, nil)

	out, _ := c.OnHookCallback(context.Background(), "any-hook", nil, "call-1")
	if out.HookSpecificOutput.PermissionDecision != "allow" {
		t.Errorf("auto-approve hook decision = %s", out.HookSpecificOutput.PermissionDecision)
	}
}

func TestOnNonControlForwardsToLog(t *testing.T) {
	log := &recordingLog{}
	c := NewClient(log, nil, nil)

	c.OnNonControl(`{"type":"assistant","message":"hi"}`)
	if len(log.lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(log.lines))
	}
}
