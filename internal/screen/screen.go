package screen

import (
	"context"
	"log/slog"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/zuvy/assess/internal/assessment"
	"github.com/zuvy/assess/internal/coach"
	"github.com/zuvy/assess/internal/session"
	"github.com/zuvy/assess/internal/speech"
	"github.com/zuvy/assess/internal/store"
	"github.com/zuvy/assess/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// EscapeHandler is implemented by screens that handle Esc themselves
// instead of letting the app pop them.
type EscapeHandler interface {
	HandlesEscape() bool
}

// Backend is the part of the API client the screens use.
type Backend interface {
	Login(ctx context.Context, email, idToken string) (*LoginResult, error)
	StudentAssessments(ctx context.Context, bootcampID int) ([]assessment.StudentAssessment, error)
	Questions(ctx context.Context, assessmentID int) (*assessment.QuestionsPage, error)
	Submit(ctx context.Context, sub session.Submission) error
	Evaluations(ctx context.Context, userID string, assessmentID int) ([]assessment.Evaluation, error)
}

// LoginResult is a successful sign-in.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         assessment.User
}

// Deps are the services shared by every screen.
type Deps struct {
	Backend     Backend
	Credentials store.CredentialRepo
	Submissions store.SubmissionRepo
	Coach       *coach.Coach
	Narrator    *speech.Narrator
	BootcampID  int
	ReportDir   string
	Logger      *slog.Logger
	Now         func() time.Time
}

// Clock returns Now or time.Now.
func (d *Deps) Clock() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Speak narrates text with opts and reports failures as an error toast.
func (d *Deps) Speak(text string, opts speech.Options) tea.Cmd {
	if text == "" {
		return Toast("Nothing to read aloud", false)
	}
	if d.Narrator == nil {
		return Toast(speech.ErrUnsupported.Error(), true)
	}
	d.Narrator.SetOptions(opts)
	if err := d.Narrator.Speak(text); err != nil {
		return Toast(err.Error(), true)
	}
	return nil
}

// StopSpeaking cancels any narration in progress.
func (d *Deps) StopSpeaking() {
	if d.Narrator != nil {
		d.Narrator.Stop()
	}
}

// UserChangedMsg announces the signed-in user, or a sign-out when User is nil.
type UserChangedMsg struct {
	User *assessment.User
}

// ToastMsg asks the app to show a transient message in the footer.
type ToastMsg struct {
	Text  string
	Error bool
}

// Toast returns a command emitting a ToastMsg.
func Toast(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return ToastMsg{Text: text, Error: isError} }
}

// SessionExpiredMsg is sent when the backend session could not be refreshed.
type SessionExpiredMsg struct {
	Err error
}
