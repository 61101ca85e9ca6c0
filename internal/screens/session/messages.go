package session

import (
	"github.com/zuvy/assess/internal/assessment"
	sess "github.com/zuvy/assess/internal/session"
)

// questionsLoadedMsg carries the questions of the assessment.
type questionsLoadedMsg struct {
	Page *assessment.QuestionsPage
	Err  error
}

// submitDoneMsg reports the outcome of the submission request.
type submitDoneMsg struct {
	Advisory *sess.AdvisorySummary
	Err      error
}

const (
	confirmSubmit = "submit"
	confirmLeave  = "leave"
)
