// Package screentest provides an in-memory backend and helpers for testing
// screens.
package screentest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/zuvy/assess/internal/assessment"
	"github.com/zuvy/assess/internal/screen"
	"github.com/zuvy/assess/internal/session"
	"github.com/zuvy/assess/internal/store"
)

// Now is the fixed clock of NewDeps.
var Now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// Backend is a scripted screen.Backend.
type Backend struct {
	mu sync.Mutex

	LoginResult *screen.LoginResult
	LoginErr    error

	Assessments    []assessment.StudentAssessment
	AssessmentsErr error

	Page         *assessment.QuestionsPage
	QuestionsErr error

	SubmitErr   error
	Submissions []session.Submission

	Evals    []assessment.Evaluation
	EvalsErr error
}

var _ screen.Backend = (*Backend)(nil)

func (b *Backend) Login(_ context.Context, email, _ string) (*screen.LoginResult, error) {
	if b.LoginErr != nil {
		return nil, b.LoginErr
	}
	if b.LoginResult == nil {
		return nil, fmt.Errorf("no login scripted for %s", email)
	}
	return b.LoginResult, nil
}

func (b *Backend) StudentAssessments(context.Context, int) ([]assessment.StudentAssessment, error) {
	return b.Assessments, b.AssessmentsErr
}

func (b *Backend) Questions(context.Context, int) (*assessment.QuestionsPage, error) {
	if b.QuestionsErr != nil {
		return nil, b.QuestionsErr
	}
	if b.Page == nil {
		return &assessment.QuestionsPage{}, nil
	}
	return b.Page, nil
}

func (b *Backend) Submit(_ context.Context, sub session.Submission) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SubmitErr != nil {
		return b.SubmitErr
	}
	b.Submissions = append(b.Submissions, sub)
	return nil
}

func (b *Backend) Evaluations(context.Context, string, int) ([]assessment.Evaluation, error) {
	return b.Evals, b.EvalsErr
}

// NewDeps returns deps backed by b, a temporary store and a fixed clock.
func NewDeps(t *testing.T, b *Backend) *screen.Deps {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return &screen.Deps{
		Backend:     b,
		Credentials: st.CredentialRepo(),
		Submissions: st.SubmissionRepo(),
		ReportDir:   t.TempDir(),
		Logger:      slog.New(slog.DiscardHandler),
		Now:         func() time.Time { return Now },
	}
}

// Drain runs cmd and every command of a batch, returning the messages.
// Commands that sleep, such as tea.Tick, must not be passed in.
func Drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, Drain(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// Key builds a key press for a printable rune.
func Key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

// Special builds a key press for a non-printable key.
func Special(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// Questions builds n questions with four options each. The correct option
// of question i is option number (i%4)+1.
func Questions(n int) []assessment.Question {
	qs := make([]assessment.Question, n)
	for i := range qs {
		id := 100 + i
		q := assessment.Question{
			ID:         id,
			Question:   fmt.Sprintf("Question %d?", i+1),
			Topic:      "Arrays",
			Difficulty: "Easy",
			Language:   "JavaScript",
		}
		for j := 1; j <= 4; j++ {
			q.Options = append(q.Options, assessment.Option{
				ID: id*10 + j, QuestionID: id, OptionText: fmt.Sprintf("Option %d", j), OptionNumber: j,
			})
		}
		q.CorrectOption = q.Options[i%4]
		qs[i] = q
	}
	return qs
}

// Find returns the first message of type T.
func Find[T tea.Msg](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
