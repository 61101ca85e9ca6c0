package session

import (
	"errors"
	"time"

	"github.com/zuvy/assess/internal/assessment"
)

// SessionPhase represents the lifecycle phase of an attempt.
type SessionPhase int

const (
	PhaseInProgress SessionPhase = iota // Answering and navigating
	PhaseSubmitting                     // Submission request in flight
	PhaseCompleted                      // Submitted; terminal
)

func (p SessionPhase) String() string {
	switch p {
	case PhaseInProgress:
		return "in-progress"
	case PhaseSubmitting:
		return "submitting"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

var (
	// ErrSubmitInFlight is returned when a submission is already running.
	ErrSubmitInFlight = errors.New("submission already in progress")

	// ErrCompleted is returned for operations on a submitted attempt.
	ErrCompleted = errors.New("assessment already submitted")

	// ErrNoAnswers is returned when nothing was selected before submitting.
	ErrNoAnswers = errors.New(assessment.MsgNoAnswers)
)

// SessionState tracks one assessment attempt in memory.
type SessionState struct {
	// ID identifies this attempt locally.
	ID string

	// AssessmentID is the backend assessment being attempted.
	AssessmentID int

	// Questions is fixed when the attempt starts.
	Questions []assessment.UIQuestion

	// Current is the 0-based index of the displayed question.
	Current int

	// Selections maps question index to selected synthetic option ids.
	Selections map[int][]string

	// Answered holds every index that ever received a selection. It never shrinks.
	Answered map[int]bool

	// Phase is the lifecycle phase.
	Phase SessionPhase

	// StartTime is when the attempt began.
	StartTime time.Time

	// SubmittedAt is set when the submission succeeded.
	SubmittedAt time.Time
}

// NewSessionState creates an attempt positioned on the first question.
func NewSessionState(id string, assessmentID int, questions []assessment.UIQuestion) *SessionState {
	return &SessionState{
		ID:           id,
		AssessmentID: assessmentID,
		Questions:    questions,
		Selections:   make(map[int][]string),
		Answered:     make(map[int]bool),
		Phase:        PhaseInProgress,
		StartTime:    time.Now(),
	}
}
