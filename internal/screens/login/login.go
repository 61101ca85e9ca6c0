// Package login is the sign-in screen shown when no credentials are stored.
package login

import (
	"context"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/zuvy/assess/internal/api"
	"github.com/zuvy/assess/internal/assessment"
	"github.com/zuvy/assess/internal/router"
	"github.com/zuvy/assess/internal/screen"
	"github.com/zuvy/assess/internal/store"
	"github.com/zuvy/assess/internal/ui/components"
	"github.com/zuvy/assess/internal/ui/layout"
	"github.com/zuvy/assess/internal/ui/theme"
)

type loginDoneMsg struct {
	User *assessment.User
	Err  error
}

// LoginScreen asks for an email and a Google ID token.
type LoginScreen struct {
	deps   *screen.Deps
	inputs []components.TextInput
	focus  int
	busy   bool
	errMsg string
	next   func(assessment.User) screen.Screen
}

var _ screen.Screen = (*LoginScreen)(nil)
var _ screen.KeyHintProvider = (*LoginScreen)(nil)

// New creates the screen. next is called with the signed-in user.
func New(deps *screen.Deps, next func(assessment.User) screen.Screen) *LoginScreen {
	return &LoginScreen{
		deps: deps,
		inputs: []components.TextInput{
			components.NewTextInput("Email", "you@example.com", false, 254),
			components.NewTextInput("Google ID token", "paste the token from the web sign-in", true, 4096),
		},
		next: next,
	}
}

func (s *LoginScreen) Init() tea.Cmd {
	return s.inputs[0].Focus()
}

func (s *LoginScreen) Title() string {
	return "Sign in"
}

func (s *LoginScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Sign in"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *LoginScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = api.Message(msg.Err, "Sign-in failed. Please try again.")
			return s, nil
		}
		user := *msg.User
		return s, tea.Sequence(
			func() tea.Msg { return screen.UserChangedMsg{User: &user} },
			router.ResetTo(s.next(user)),
		)

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "tab", "down", "shift+tab", "up":
			return s, s.cycle(msg.String() == "shift+tab" || msg.String() == "up")
		case "enter":
			if s.focus == 0 {
				return s, s.cycle(false)
			}
			return s, s.submit()
		}
	}

	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	return s, cmd
}

func (s *LoginScreen) cycle(back bool) tea.Cmd {
	s.inputs[s.focus].Blur()
	if back {
		s.focus = (s.focus + len(s.inputs) - 1) % len(s.inputs)
	} else {
		s.focus = (s.focus + 1) % len(s.inputs)
	}
	return s.inputs[s.focus].Focus()
}

func (s *LoginScreen) submit() tea.Cmd {
	email := s.inputs[0].Value()
	token := s.inputs[1].Value()
	if email == "" || token == "" {
		s.errMsg = assessment.MsgRequiredFields
		return nil
	}
	if !strings.Contains(email, "@") {
		s.errMsg = "Please enter a valid email address"
		return nil
	}
	s.errMsg = ""
	s.busy = true
	deps := s.deps
	return func() tea.Msg {
		ctx := context.Background()
		res, err := deps.Backend.Login(ctx, email, token)
		if err != nil {
			return loginDoneMsg{Err: err}
		}
		if deps.Credentials != nil {
			err = deps.Credentials.Save(ctx, store.Credentials{
				AccessToken:  res.AccessToken,
				RefreshToken: res.RefreshToken,
				UserID:       res.User.ID,
				UserName:     res.User.Name,
				UserEmail:    res.User.Email,
				Roles:        res.User.RolesList,
				UpdatedAt:    time.Now(),
			})
			if err != nil {
				return loginDoneMsg{Err: err}
			}
		}
		return loginDoneMsg{User: &res.User}
	}
}

func (s *LoginScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Sign in to continue") + "\n")
	b.WriteString(theme.Subtitle.Render("Use the Google ID token from the Zuvy web sign-in page.") + "\n\n")
	for _, in := range s.inputs {
		b.WriteString(in.View() + "\n\n")
	}
	switch {
	case s.busy:
		b.WriteString(theme.Hint.Render("Signing in..."))
	case s.errMsg != "":
		b.WriteString(theme.ErrorText.Render(s.errMsg))
	}
	card := theme.Card.Width(min(width-4, 72)).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
