// Package app is the root Bubble Tea model of the terminal client.
package app

import (
	"context"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/zuvy/assess/internal/assessment"
	"github.com/zuvy/assess/internal/router"
	"github.com/zuvy/assess/internal/screen"
	"github.com/zuvy/assess/internal/screens/home"
	"github.com/zuvy/assess/internal/screens/login"
	"github.com/zuvy/assess/internal/ui/layout"
	"github.com/zuvy/assess/internal/ui/theme"
)

const toastDuration = 4 * time.Second

type toastClearMsg struct {
	id int
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router   *router.Router
	deps     *screen.Deps
	user     *assessment.User
	width    int
	height   int
	toast    string
	toastErr bool
	toastID  int
	expired  error
}

// NewModel starts on the assessment list when user is known and on the
// sign-in screen otherwise.
func NewModel(deps *screen.Deps, user *assessment.User) AppModel {
	var initial screen.Screen
	if user != nil {
		initial = home.New(deps, *user)
	} else {
		initial = login.New(deps, func(u assessment.User) screen.Screen {
			return home.New(deps, u)
		})
	}
	return AppModel{
		router: router.New(initial),
		deps:   deps,
		user:   user,
	}
}

func (m AppModel) Init() tea.Cmd {
	if active := m.router.Active(); active != nil {
		return active.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case screen.UserChangedMsg:
		m.user = msg.User
		return m, nil

	case screen.ToastMsg:
		m.toastID++
		m.toast = msg.Text
		m.toastErr = msg.Error
		id := m.toastID
		return m, tea.Tick(toastDuration, func(time.Time) tea.Msg { return toastClearMsg{id: id} })

	case toastClearMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}
		return m, nil

	case screen.SessionExpiredMsg:
		if m.expired == nil {
			m.expired = msg.Err
			m.deps.StopSpeaking()
			m.deps.Logger.Warn("session expired", "error", msg.Err)
		}
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			m.deps.StopSpeaking()
			return m, tea.Quit
		}
		if m.expired != nil {
			if key == "enter" || key == "esc" || key == "q" {
				return m, tea.Quit
			}
			return m, nil
		}
		if key == "esc" {
			if h, ok := m.router.Active().(screen.EscapeHandler); ok && h.HandlesEscape() {
				break
			}
			if m.router.Depth() > 1 {
				return m, router.Pop()
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

// render draws the frame, or the session expired modal over everything.
func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	if m.expired != nil {
		return layout.RenderModal("Session expired",
			assessment.MsgSessionExpired+"\n\nRun `zuvy login` to sign in again.",
			"Press Enter to quit", m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	userLabel := ""
	if m.user != nil {
		userLabel = m.user.Name
		if userLabel == "" {
			userLabel = m.user.Email
		}
	}
	header := layout.RenderHeader(title, userLabel, m.width)

	var footerHints []layout.KeyHint
	if p, ok := active.(screen.KeyHintProvider); ok {
		footerHints = p.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	} else {
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	toast := ""
	if m.toast != "" {
		style := theme.Toast
		if m.toastErr {
			style = theme.ToastError
		}
		toast = style.Render(m.toast)
	}
	footer := layout.RenderFooter(footerHints, toast, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// SessionEvents forwards API client session events to the running program.
// Events raised before the program starts are delivered once it does.
type SessionEvents struct {
	mu      sync.Mutex
	program *tea.Program
	pending []error
}

// SessionExpired implements api.SessionEvents.
func (e *SessionEvents) SessionExpired(err error) {
	e.mu.Lock()
	p := e.program
	if p == nil {
		e.pending = append(e.pending, err)
	}
	e.mu.Unlock()
	if p != nil {
		p.Send(screen.SessionExpiredMsg{Err: err})
	}
}

func (e *SessionEvents) attach(p *tea.Program) {
	e.mu.Lock()
	e.program = p
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()
	for _, err := range pending {
		go p.Send(screen.SessionExpiredMsg{Err: err})
	}
}

// Run starts the Bubble Tea program and blocks until it exits. events may
// be nil.
func Run(ctx context.Context, deps *screen.Deps, user *assessment.User, events *SessionEvents) error {
	p := tea.NewProgram(NewModel(deps, user), tea.WithContext(ctx))
	if events != nil {
		events.attach(p)
	}
	_, err := p.Run()
	deps.StopSpeaking()
	return err
}
