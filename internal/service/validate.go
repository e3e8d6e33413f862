package service

import (
	"fmt"
	"strings"

	"github.com/harshaislive/bespoke/internal/model"
)

// FindIncompleteAnswers returns the questions whose answer is missing or
// whitespace-only, preserving original order. Completion is permitted only
// when the result is empty.
func FindIncompleteAnswers(questions []model.Question, answers model.AnswerMap) []model.Question {
	var incomplete []model.Question
	for _, q := range questions {
		if strings.TrimSpace(answers[q.Text]) == "" {
			incomplete = append(incomplete, q)
		}
	}
	return incomplete
}

// IncompleteAnswersError blocks the completion transition and carries the
// structured list of unanswered questions plus the index the UI should jump
// to.
type IncompleteAnswersError struct {
	Questions  []model.Question
	FirstIndex int
}

func (e *IncompleteAnswersError) Error() string {
	return fmt.Sprintf("%d question(s) still unanswered", len(e.Questions))
}
