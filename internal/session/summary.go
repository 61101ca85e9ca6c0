package session

import "fmt"

// QuestionOutcome is the local, advisory grading of one selection.
type QuestionOutcome struct {
	Index      int
	QuestionID string
	Selected   []string
	Correct    bool
}

// AdvisorySummary is computed on the client right after submitting so a
// message can be shown before the evaluation arrives. The evaluation fetch
// remains authoritative.
type AdvisorySummary struct {
	Answered int
	Total    int
	Correct  int
	Outcomes []QuestionOutcome
}

// BuildAdvisory grades every selection entry with exact set equality against
// the question's correct ids.
func BuildAdvisory(state *SessionState) *AdvisorySummary {
	sum := &AdvisorySummary{
		Answered: state.AnsweredCount(),
		Total:    state.Total(),
	}
	for i, q := range state.Questions {
		selected, ok := state.Selections[i]
		if !ok {
			continue
		}
		correct := q.IsCorrect(selected)
		if correct {
			sum.Correct++
		}
		sum.Outcomes = append(sum.Outcomes, QuestionOutcome{
			Index:      i,
			QuestionID: q.ID,
			Selected:   selected,
			Correct:    correct,
		})
	}
	return sum
}

// Message is the toast shown after a successful submission.
func (a *AdvisorySummary) Message() string {
	return fmt.Sprintf("You answered %d out of %d questions.", a.Answered, a.Total)
}
