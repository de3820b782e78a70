package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/arbiterhq/arbiter/internal/approval"
)

// Client handles control protocol callbacks for one agent session and
// routes them to the configured approval and question backends.
type Client struct {
	log       LogWriter
	approvals approval.ApprovalService
	questions approval.QuestionService
	// allowedTools holds glob patterns for tools approved without a human
	// round trip.
	allowedTools []string
	// autoApprove is true only when no approval backend is wired; the
	// client never flips it itself.
	autoApprove bool
	logger      *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAllowedTools sets glob patterns (doublestar syntax) for tools that
// are allowed without requesting approval.
func WithAllowedTools(patterns []string) ClientOption {
	return func(c *Client) { c.allowedTools = patterns }
}

// WithClientLogger sets the client logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a control protocol client. A nil approvals service
// puts the client in auto-approve mode.
func NewClient(log LogWriter, approvals approval.ApprovalService, questions approval.QuestionService, opts ...ClientOption) *Client {
	c := &Client{
		log:         log,
		approvals:   approvals,
		questions:   questions,
		autoApprove: approvals == nil,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnCanUseTool answers a can_use_tool control request. The agent always
// receives a decision: backend failures are converted into a deny rather
// than propagated, and a request that cannot be correlated (no tool use
// id) fails open with a warning.
func (c *Client) OnCanUseTool(ctx context.Context, toolName string, input json.RawMessage, _ []PermissionUpdate, toolUseID string) (PermissionResult, error) {
	if c.autoApprove {
		return Allow(input), nil
	}

	if toolUseID == "" {
		// tool_use_id is undocumented, so correlation may not be possible.
		c.logger.Warn("no tool_use_id available for tool, cannot request approval", "tool", toolName)
		return Allow(input), nil
	}

	if toolName == AskUserQuestionTool {
		var parsed approval.AskUserQuestionInput
		if err := json.Unmarshal(input, &parsed); err == nil {
			return c.handleUserQuestion(ctx, toolUseID, parsed.Questions)
		}
		c.logger.Warn("failed to parse AskUserQuestion input, falling back to approval", "tool_use_id", toolUseID)
	}

	if c.preApproved(toolName) {
		c.mirrorDecision(toolUseID, toolName, approval.Approved())
		return Allow(input), nil
	}

	return c.handleApproval(ctx, toolUseID, toolName, input)
}

// handleApproval routes a tool invocation through the approval service and
// translates the final status into a permission result.
func (c *Client) handleApproval(ctx context.Context, toolUseID, toolName string, input json.RawMessage) (PermissionResult, error) {
	if c.approvals == nil {
		return Deny("Tool approval request failed"), nil
	}

	status, err := c.approvals.RequestToolApproval(ctx, toolName, input, toolUseID)
	if err != nil {
		c.logger.Error("tool approval request failed", "tool", toolName, "error", err)
		return Deny("Tool approval request failed"), nil
	}

	c.mirrorDecision(toolUseID, toolName, status)

	switch status.State {
	case approval.StateApproved:
		if toolName == ExitPlanModeTool {
			// Leaving plan mode switches the whole session to
			// unrestricted execution.
			return Allow(input, PermissionUpdate{
				Type:        PermissionUpdateTypeSetMode,
				Mode:        PermissionModeBypassPermissions,
				Destination: PermissionDestinationSession,
			}), nil
		}
		return Allow(input), nil
	case approval.StateDenied:
		message := status.Reason
		if message == "" {
			message = "Denied by user"
		}
		return Deny(message), nil
	case approval.StateTimedOut:
		return Deny("Approval request timed out"), nil
	default:
		return Deny("Approval still pending (unexpected)"), nil
	}
}

// handleUserQuestion routes the AskUserQuestion payload through the
// question service and formats the answers the way Claude Code expects.
func (c *Client) handleUserQuestion(ctx context.Context, toolUseID string, questions []approval.Question) (PermissionResult, error) {
	if c.questions == nil {
		return Deny("User question request failed: " + approval.ErrServiceUnavailable.Error()), nil
	}

	resp, err := c.questions.RequestUserQuestion(ctx, toolUseID, questions)
	if err != nil {
		c.logger.Error("user question request failed", "tool_use_id", toolUseID, "error", err)
		return Deny(fmt.Sprintf("User question request failed: %v", err)), nil
	}

	result, err := json.Marshal(map[string]any{
		"questions": questions,
		"answers":   FormatAnswers(questions, resp.Answers),
	})
	if err != nil {
		return PermissionResult{}, fmt.Errorf("marshal question result: %w", err)
	}
	return Allow(result), nil
}

// OnHookCallback answers a hook_callback control request. It never blocks:
// everything except the reserved auto-approve callback returns "ask",
// which makes the protocol forward the real decision to can_use_tool.
func (c *Client) OnHookCallback(_ context.Context, callbackID string, _ json.RawMessage, _ string) (HookOutput, error) {
	if c.autoApprove {
		return hookDecision("allow", "Auto-approved by SDK"), nil
	}
	if callbackID == AutoApproveCallbackID {
		return hookDecision("allow", "Approved by SDK"), nil
	}
	return hookDecision("ask", "Forwarding to can_use_tool service"), nil
}

// OnNonControl forwards a non-control line verbatim to the log.
func (c *Client) OnNonControl(line string) {
	if c.log != nil {
		c.log.PushRaw(line)
	}
}

// AutoApprove reports whether the client operates without a human reviewer.
func (c *Client) AutoApprove() bool {
	return c.autoApprove
}

// preApproved reports whether the tool matches an allowed pattern.
func (c *Client) preApproved(toolName string) bool {
	for _, pattern := range c.allowedTools {
		if ok, err := doublestar.Match(pattern, toolName); err == nil && ok {
			return true
		}
	}
	return false
}

// mirrorDecision writes the approval decision into the raw transcript so
// the visible log always shows it, independent of the structured patch.
func (c *Client) mirrorDecision(toolUseID, toolName string, status approval.Status) {
	if c.log == nil {
		return
	}
	line, err := json.Marshal(ApprovalResponseLine{
		Type:           "approval_response",
		CallID:         toolUseID,
		ToolName:       toolName,
		ApprovalStatus: status,
	})
	if err != nil {
		c.logger.Warn("failed to marshal approval response line", "error", err)
		return
	}
	c.log.PushRaw(string(line))
}
