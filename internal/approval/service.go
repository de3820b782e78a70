package approval

import (
	"context"
	"encoding/json"
)

// ApprovalService requests approval for a tool invocation and waits for the
// final decision.
type ApprovalService interface {
	RequestToolApproval(ctx context.Context, toolName string, toolInput json.RawMessage, toolCallID string) (Status, error)
}

// QuestionService asks the user a set of questions and waits for the response.
type QuestionService interface {
	RequestUserQuestion(ctx context.Context, toolCallID string, questions []Question) (Response, error)
}

// NoopApprovalService approves everything immediately. Used when no human
// reviewer is configured.
type NoopApprovalService struct{}

// RequestToolApproval always returns approved.
func (NoopApprovalService) RequestToolApproval(context.Context, string, json.RawMessage, string) (Status, error) {
	return Approved(), nil
}
