package claude

import (
	"fmt"

	"github.com/arbiterhq/arbiter/internal/approval"
)

// FormatAnswers shapes user answers the way Claude Code expects them: a
// map keyed by each question's header (or question_<index> when no header
// is set). Custom text wins over selections; multi-select questions yield
// the list of selected option labels, single-select the one label.
// Answers with out-of-range indices are skipped rather than erroring.
func FormatAnswers(questions []approval.Question, answers []approval.Answer) map[string]any {
	out := make(map[string]any)
	for _, ans := range answers {
		if ans.QuestionIndex < 0 || ans.QuestionIndex >= len(questions) {
			continue
		}
		q := questions[ans.QuestionIndex]

		key := q.Header
		if key == "" {
			key = fmt.Sprintf("question_%d", ans.QuestionIndex)
		}

		if ans.CustomText != "" {
			out[key] = ans.CustomText
			continue
		}

		if q.MultiSelect {
			labels := make([]string, 0, len(ans.SelectedOptions))
			for _, idx := range ans.SelectedOptions {
				if idx >= 0 && idx < len(q.Options) {
					labels = append(labels, q.Options[idx].Label)
				}
			}
			out[key] = labels
			continue
		}

		if len(ans.SelectedOptions) > 0 {
			idx := ans.SelectedOptions[0]
			if idx >= 0 && idx < len(q.Options) {
				out[key] = q.Options[idx].Label
			}
		}
	}
	return out
}
