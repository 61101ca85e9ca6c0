package app

import (
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/zuvy/assess/internal/assessment"
	"github.com/zuvy/assess/internal/router"
	"github.com/zuvy/assess/internal/screen"
	"github.com/zuvy/assess/internal/screen/screentest"
	"github.com/zuvy/assess/internal/screens/home"
	"github.com/zuvy/assess/internal/screens/login"
)

var testUser = &assessment.User{ID: "42", Name: "Asha Rao", Email: "asha@example.com"}

func update(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(AppModel), cmd
}

func sized(t *testing.T, m AppModel) AppModel {
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestNewModel_InitialScreen(t *testing.T) {
	deps := screentest.NewDeps(t, &screentest.Backend{})
	if _, ok := NewModel(deps, nil).router.Active().(*login.LoginScreen); !ok {
		t.Error("signed-out start should show the sign-in screen")
	}
	if _, ok := NewModel(deps, testUser).router.Active().(*home.HomeScreen); !ok {
		t.Error("signed-in start should show the assessment list")
	}
}

func TestView_HeaderShowsUser(t *testing.T) {
	m := sized(t, NewModel(screentest.NewDeps(t, &screentest.Backend{}), testUser))
	if !strings.Contains(m.render(), "Asha Rao") {
		t.Error("header should show the signed-in user")
	}

	m, _ = update(t, m, screen.UserChangedMsg{User: &assessment.User{Name: "Ravi"}})
	if !strings.Contains(m.render(), "Ravi") {
		t.Error("header should follow user changes")
	}
}

func TestToast_ShownAndCleared(t *testing.T) {
	m := sized(t, NewModel(screentest.NewDeps(t, &screentest.Backend{}), testUser))
	m, cmd := update(t, m, screen.ToastMsg{Text: "Saved report.pdf"})
	if cmd == nil {
		t.Fatal("expected a clear timer")
	}
	if !strings.Contains(m.render(), "Saved report.pdf") {
		t.Error("toast should be rendered in the footer")
	}

	m, _ = update(t, m, screen.ToastMsg{Text: "second"})
	m, _ = update(t, m, toastClearMsg{id: 1})
	if m.toast != "second" {
		t.Error("a stale timer must not clear a newer toast")
	}
	m, _ = update(t, m, toastClearMsg{id: 2})
	if m.toast != "" {
		t.Error("toast should clear")
	}
}

func TestSessionExpired_ModalQuitsOnEnter(t *testing.T) {
	m := sized(t, NewModel(screentest.NewDeps(t, &screentest.Backend{}), testUser))
	m, _ = update(t, m, screen.SessionExpiredMsg{Err: errors.New("refresh rejected")})
	if !strings.Contains(m.render(), assessment.MsgSessionExpired) {
		t.Error("expected the session expired modal")
	}

	_, cmd := update(t, m, screentest.Key('x'))
	if cmd != nil {
		t.Error("other keys should be ignored while the modal is shown")
	}
	_, cmd = update(t, m, screentest.Special(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("Enter should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestEscape_PopsUnlessScreenHandlesIt(t *testing.T) {
	m := sized(t, NewModel(screentest.NewDeps(t, &screentest.Backend{}), testUser))
	m.router.Push(&plainScreen{})

	_, cmd := update(t, m, screentest.Special(tea.KeyEscape))
	if _, ok := screentest.Find[router.PopScreenMsg](screentest.Drain(cmd)); !ok {
		t.Error("Esc should pop a plain screen")
	}

	m.router.Pop()
	_, cmd = update(t, m, screentest.Special(tea.KeyEscape))
	if cmd != nil {
		t.Error("the assessment list handles Esc itself")
	}
}

func TestSessionEvents_DeliversPending(t *testing.T) {
	var e SessionEvents
	e.SessionExpired(errors.New("early"))
	if len(e.pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(e.pending))
	}
}

type plainScreen struct{}

func (s *plainScreen) Init() tea.Cmd                           { return nil }
func (s *plainScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *plainScreen) View(int, int) string                    { return "plain" }
func (s *plainScreen) Title() string                           { return "Plain" }
