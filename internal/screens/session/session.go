package session

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"

	"github.com/zuvy/assess/internal/api"
	"github.com/zuvy/assess/internal/assessment"
	"github.com/zuvy/assess/internal/router"
	"github.com/zuvy/assess/internal/screen"
	"github.com/zuvy/assess/internal/screens/summary"
	sess "github.com/zuvy/assess/internal/session"
	"github.com/zuvy/assess/internal/speech"
	"github.com/zuvy/assess/internal/store"
	"github.com/zuvy/assess/internal/ui/components"
	"github.com/zuvy/assess/internal/ui/layout"
)

// SessionScreen runs one attempt of an assessment.
type SessionScreen struct {
	deps       *screen.Deps
	user       assessment.User
	assessment assessment.Assessment
	records    []assessment.Question
	state      *sess.SessionState
	choice     components.MultiChoice
	confirm    *components.Confirm

	// Sidebar goto mode.
	sidebarFocus  bool
	sidebarCursor int

	loading bool
	errMsg  string
}

var _ screen.Screen = (*SessionScreen)(nil)
var _ screen.KeyHintProvider = (*SessionScreen)(nil)
var _ screen.EscapeHandler = (*SessionScreen)(nil)

// New creates a new SessionScreen for a.
func New(deps *screen.Deps, user assessment.User, a assessment.Assessment) *SessionScreen {
	return &SessionScreen{
		deps:       deps,
		user:       user,
		assessment: a,
		loading:    true,
	}
}

func (s *SessionScreen) Init() tea.Cmd {
	return s.fetchQuestions()
}

func (s *SessionScreen) fetchQuestions() tea.Cmd {
	s.loading = true
	s.errMsg = ""
	backend := s.deps.Backend
	id := s.assessment.ID
	return func() tea.Msg {
		page, err := backend.Questions(context.Background(), id)
		return questionsLoadedMsg{Page: page, Err: err}
	}
}

func (s *SessionScreen) Title() string {
	if s.assessment.Title != "" {
		return s.assessment.Title
	}
	return "Assessment"
}

// HandlesEscape asks before leaving an attempt in progress.
func (s *SessionScreen) HandlesEscape() bool {
	return true
}

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.confirm != nil:
		return []layout.KeyHint{
			{Key: "←→", Description: "Choose"},
			{Key: "Enter", Description: "Confirm"},
			{Key: "Esc", Description: "Cancel"},
		}
	case s.state == nil:
		return []layout.KeyHint{
			{Key: "r", Description: "Retry"},
			{Key: "Esc", Description: "Back"},
		}
	case s.sidebarFocus:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Question"},
			{Key: "Enter", Description: "Go"},
			{Key: "Esc", Description: "Close"},
		}
	}
	return []layout.KeyHint{
		{Key: "1-9", Description: "Select"},
		{Key: "n/p", Description: "Next/Prev"},
		{Key: "g", Description: "Go to"},
		{Key: "v", Description: "Read aloud"},
		{Key: "s", Description: "Submit"},
		{Key: "Esc", Description: "Leave"},
	}
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case questionsLoadedMsg:
		return s.handleQuestions(msg)

	case submitDoneMsg:
		return s.handleSubmitDone(msg)

	case components.ChooseMsg:
		if s.state != nil {
			if q := s.state.CurrentQuestion(); q != nil && msg.Index < len(q.Options) {
				s.state.SelectOption(s.state.Current, q.Options[msg.Index].ID)
			}
		}
		return s, nil

	case components.ConfirmResultMsg:
		s.confirm = nil
		if !msg.Confirmed {
			return s, nil
		}
		switch msg.ID {
		case confirmSubmit:
			return s, s.submit()
		case confirmLeave:
			s.deps.StopSpeaking()
			return s, router.Pop()
		}
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *SessionScreen) handleQuestions(msg questionsLoadedMsg) (screen.Screen, tea.Cmd) {
	s.loading = false
	if msg.Err != nil {
		s.errMsg = api.Message(msg.Err, "Could not load questions.")
		return s, nil
	}
	if msg.Page.IsCompleted {
		return s, router.Replace(summary.New(s.deps, s.user, s.assessment))
	}
	if len(msg.Page.Questions) == 0 {
		s.errMsg = assessment.MsgNoQuestionsFound
		return s, nil
	}

	s.records = msg.Page.Questions
	s.state = sess.NewSessionState(uuid.NewString(), s.assessment.ID, assessment.TransformAll(s.records))
	s.state.StartTime = s.deps.Clock()
	s.syncChoice()
	s.deps.Logger.Info("assessment started", "assessment_id", s.assessment.ID,
		"session_id", s.state.ID, "questions", s.state.Total())
	return s, nil
}

// syncChoice points the option selector at the current question.
func (s *SessionScreen) syncChoice() {
	q := s.state.CurrentQuestion()
	if q == nil {
		s.choice = components.NewMultiChoice(nil)
		return
	}
	opts := make([]string, len(q.Options))
	for i, o := range q.Options {
		opts[i] = o.Text
	}
	s.choice = components.NewMultiChoice(opts)
}

func (s *SessionScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.confirm != nil {
		c, cmd := s.confirm.Update(msg)
		s.confirm = &c
		return s, cmd
	}

	key := msg.String()
	if s.state == nil {
		switch key {
		case "r":
			if !s.loading {
				return s, s.fetchQuestions()
			}
		case "esc":
			return s, router.Pop()
		}
		return s, nil
	}
	if s.state.Phase != sess.PhaseInProgress {
		return s, nil
	}

	if s.sidebarFocus {
		switch key {
		case "up", "k":
			if s.sidebarCursor > 0 {
				s.sidebarCursor--
			}
		case "down", "j":
			if s.sidebarCursor < s.state.Total()-1 {
				s.sidebarCursor++
			}
		case "enter":
			s.goTo(s.sidebarCursor)
			s.sidebarFocus = false
		case "esc", "g":
			s.sidebarFocus = false
		}
		return s, nil
	}

	switch key {
	case "n", "right", "tab":
		s.goTo(s.state.Current + 1)
		return s, nil
	case "p", "left", "shift+tab":
		s.goTo(s.state.Current - 1)
		return s, nil
	case "g":
		s.sidebarFocus = true
		s.sidebarCursor = s.state.Current
		return s, nil
	case "v":
		q := s.state.CurrentQuestion()
		if q == nil {
			return s, nil
		}
		return s, s.deps.Speak(speech.QuestionText(s.state.Current+1, *q), speech.DefaultOptions())
	case "s":
		if err := s.state.ValidateForSubmit(); err != nil {
			return s, screen.Toast(err.Error(), true)
		}
		c := components.NewConfirm(confirmSubmit,
			fmt.Sprintf("Submit %d of %d answers? You cannot change them afterwards.",
				s.state.AnsweredCount(), s.state.Total()),
			"Submit", "Keep working")
		s.confirm = &c
		return s, nil
	case "esc":
		c := components.NewConfirm(confirmLeave,
			"Leave this assessment? Your answers will be lost.", "Leave", "Stay")
		s.confirm = &c
		return s, nil
	}

	var cmd tea.Cmd
	s.choice, cmd = s.choice.Update(msg)
	return s, cmd
}

func (s *SessionScreen) goTo(index int) {
	if s.state.GoTo(index) {
		s.syncChoice()
	}
}

// submit reconciles the selections and posts them. The payload and the
// advisory grading are built here so the command never reads the state.
func (s *SessionScreen) submit() tea.Cmd {
	if err := s.state.BeginSubmit(); err != nil {
		return screen.Toast(err.Error(), true)
	}
	sub := sess.NewSubmission(s.state, s.records)
	advisory := sess.BuildAdvisory(s.state)
	deps := s.deps
	sessionID := s.state.ID
	return func() tea.Msg {
		ctx := context.Background()
		err := deps.Backend.Submit(ctx, sub)
		if deps.Submissions != nil {
			rec := store.SubmissionRecord{
				Timestamp:       deps.Clock(),
				SessionID:       sessionID,
				AssessmentID:    sub.AIAssessmentID,
				Answered:        advisory.Answered,
				Total:           advisory.Total,
				AdvisoryCorrect: advisory.Correct,
				Success:         err == nil,
			}
			if err != nil {
				rec.ErrorMessage = err.Error()
			}
			if recErr := deps.Submissions.Record(ctx, rec); recErr != nil {
				deps.Logger.Warn("failed to record submission", "error", recErr)
			}
		}
		return submitDoneMsg{Advisory: advisory, Err: err}
	}
}

func (s *SessionScreen) handleSubmitDone(msg submitDoneMsg) (screen.Screen, tea.Cmd) {
	s.state.FinishSubmit(msg.Err)
	if msg.Err != nil {
		s.deps.Logger.Error("submission failed", "assessment_id", s.assessment.ID, "error", msg.Err)
		if errors.Is(msg.Err, api.ErrSessionExpired) {
			return s, nil
		}
		return s, screen.Toast(api.Message(msg.Err, "Submission failed. Please try again."), true)
	}
	s.deps.Logger.Info("assessment submitted", "assessment_id", s.assessment.ID,
		"session_id", s.state.ID, "answered", msg.Advisory.Answered)
	s.deps.StopSpeaking()
	return s, tea.Batch(
		screen.Toast(msg.Advisory.Message(), false),
		router.Replace(summary.New(s.deps, s.user, s.assessment)),
	)
}

func (s *SessionScreen) View(width, height int) string {
	switch {
	case s.loading:
		return renderLoading(width, height)
	case s.errMsg != "":
		return renderError(width, height, s.errMsg)
	case s.state == nil:
		return ""
	}
	if s.confirm != nil {
		return layout.Center(s.confirm.View(width), width, height)
	}
	return s.renderQuestionView(width, height)
}
