// Package claude bridges the Claude Code control protocol to the approval
// and question services: permission requests, the AskUserQuestion tool,
// session-wide permission escalation and hook callbacks.
package claude

import (
	"encoding/json"

	"github.com/arbiterhq/arbiter/internal/approval"
)

const (
	// ExitPlanModeTool requests leaving plan mode; approving it escalates
	// the session to bypassPermissions.
	ExitPlanModeTool = "ExitPlanMode"
	// AskUserQuestionTool carries a structured question payload.
	AskUserQuestionTool = "AskUserQuestion"
	// AutoApproveCallbackID is the one reserved hook callback id that is
	// always allowed without deferring to can_use_tool.
	AutoApproveCallbackID = "AUTO_APPROVE_CALLBACK_ID"
)

// PermissionMode is a Claude Code session permission mode.
type PermissionMode string

const (
	PermissionModeDefault           PermissionMode = "default"
	PermissionModePlan              PermissionMode = "plan"
	PermissionModeAcceptEdits       PermissionMode = "acceptEdits"
	PermissionModeBypassPermissions PermissionMode = "bypassPermissions"
)

// PermissionUpdateType identifies the kind of permission update.
type PermissionUpdateType string

// PermissionUpdateTypeSetMode switches the session permission mode.
const PermissionUpdateTypeSetMode PermissionUpdateType = "setMode"

// PermissionUpdateDestination scopes a permission update.
type PermissionUpdateDestination string

// PermissionDestinationSession applies for the remainder of the session.
const PermissionDestinationSession PermissionUpdateDestination = "session"

// PermissionUpdate is a permission change attached to an allow result.
type PermissionUpdate struct {
	Type        PermissionUpdateType        `json:"type"`
	Mode        PermissionMode              `json:"mode,omitempty"`
	Destination PermissionUpdateDestination `json:"destination"`
}

// PermissionResult is the adapter's answer to a can_use_tool request.
type PermissionResult struct {
	Behavior           string             `json:"behavior"`
	UpdatedInput       json.RawMessage    `json:"updatedInput,omitempty"`
	UpdatedPermissions []PermissionUpdate `json:"updatedPermissions,omitempty"`
	Message            string             `json:"message,omitempty"`
	Interrupt          *bool              `json:"interrupt,omitempty"`
}

// Allow builds an allow result, optionally carrying permission updates.
func Allow(input json.RawMessage, updates ...PermissionUpdate) PermissionResult {
	return PermissionResult{
		Behavior:           "allow",
		UpdatedInput:       input,
		UpdatedPermissions: updates,
	}
}

// Deny builds a deny result with a human-readable message. The agent's
// current turn is never forcibly interrupted.
func Deny(message string) PermissionResult {
	interrupt := false
	return PermissionResult{
		Behavior:  "deny",
		Message:   message,
		Interrupt: &interrupt,
	}
}

// HookSpecificOutput is the inner payload of a hook callback answer.
type HookSpecificOutput struct {
	HookEventName            string `json:"hookEventName"`
	PermissionDecision       string `json:"permissionDecision"`
	PermissionDecisionReason string `json:"permissionDecisionReason"`
}

// HookOutput is the adapter's answer to a hook_callback request.
type HookOutput struct {
	HookSpecificOutput HookSpecificOutput `json:"hookSpecificOutput"`
}

func hookDecision(decision, reason string) HookOutput {
	return HookOutput{HookSpecificOutput: HookSpecificOutput{
		HookEventName:            "PreToolUse",
		PermissionDecision:       decision,
		PermissionDecisionReason: reason,
	}}
}

// ApprovalResponseLine is the raw log line mirroring an approval decision
// into the visible transcript.
type ApprovalResponseLine struct {
	Type           string          `json:"type"`
	CallID         string          `json:"call_id"`
	ToolName       string          `json:"tool_name"`
	ApprovalStatus approval.Status `json:"approval_status"`
}

// LogWriter receives raw transcript lines. *logs.Store satisfies it.
type LogWriter interface {
	PushRaw(line string) int
}
