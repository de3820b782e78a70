package approval

import (
	"github.com/google/uuid"
)

// Option is a single selectable answer to a question.
type Option struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Question is one question posed to the user, with selectable options.
type Question struct {
	Question    string   `json:"question"`
	Header      string   `json:"header,omitempty"`
	Options     []Option `json:"options,omitempty"`
	MultiSelect bool     `json:"multiSelect,omitempty"`
}

// AskUserQuestionInput is the input shape of Claude Code's AskUserQuestion tool.
type AskUserQuestionInput struct {
	Questions []Question `json:"questions"`
}

// Answer is the user's answer to a single question, addressed by index.
type Answer struct {
	QuestionIndex   int    `json:"question_index"`
	SelectedOptions []int  `json:"selected_options"`
	CustomText      string `json:"custom_text,omitempty"`
}

// Response carries the user's answers for one question request.
type Response struct {
	ExecutionProcessID uuid.UUID `json:"execution_process_id"`
	Answers            []Answer  `json:"answers"`
}
