package home

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/zuvy/assess/internal/api"
	"github.com/zuvy/assess/internal/assessment"
	"github.com/zuvy/assess/internal/router"
	"github.com/zuvy/assess/internal/screen"
	"github.com/zuvy/assess/internal/screens/history"
	sessionscreen "github.com/zuvy/assess/internal/screens/session"
	"github.com/zuvy/assess/internal/screens/summary"
	"github.com/zuvy/assess/internal/ui/components"
	"github.com/zuvy/assess/internal/ui/layout"
	"github.com/zuvy/assess/internal/ui/theme"
)

type assessmentsLoadedMsg struct {
	Items []assessment.StudentAssessment
	Err   error
}

// HomeScreen lists the student's assessments.
type HomeScreen struct {
	deps    *screen.Deps
	user    assessment.User
	items   []assessment.StudentAssessment
	menu    components.Menu
	loading bool
	errMsg  string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)
var _ screen.EscapeHandler = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps *screen.Deps, user assessment.User) *HomeScreen {
	return &HomeScreen{deps: deps, user: user, loading: true}
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.load()
}

func (h *HomeScreen) load() tea.Cmd {
	h.loading = true
	h.errMsg = ""
	deps := h.deps
	return func() tea.Msg {
		items, err := deps.Backend.StudentAssessments(context.Background(), deps.BootcampID)
		return assessmentsLoadedMsg{Items: items, Err: err}
	}
}

func (h *HomeScreen) Title() string {
	return "Assessments"
}

// HandlesEscape keeps the root screen on the stack.
func (h *HomeScreen) HandlesEscape() bool {
	return true
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Open"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "r", Description: "Refresh"},
		{Key: "h", Description: "History"},
		{Key: "q", Description: "Quit"},
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case assessmentsLoadedMsg:
		h.loading = false
		if msg.Err != nil {
			h.errMsg = api.Message(msg.Err, "Could not load assessments.")
			return h, nil
		}
		h.items = msg.Items
		h.rebuildMenu()
		return h, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return h, h.load()
		case "h":
			return h, router.Push(history.New(h.deps.Submissions))
		case "q":
			return h, tea.Quit
		}
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) rebuildMenu() {
	now := h.deps.Clock()
	items := make([]components.MenuItem, 0, len(h.items))
	for _, sa := range h.items {
		state := assessment.AvailabilityAt(sa, now)
		items = append(items, components.MenuItem{
			Label:  sa.Title,
			Badge:  renderBadge(state),
			Detail: detailLine(sa, state, now),
			Action: func() tea.Cmd { return h.open(sa) },
		})
	}
	selected := h.menu.Selected
	h.menu = components.NewMenu(items)
	if selected < len(items) {
		h.menu.Selected = selected
	}
}

// open is evaluated when Enter is pressed, so the window is checked
// against the current time rather than the load time.
func (h *HomeScreen) open(sa assessment.StudentAssessment) tea.Cmd {
	now := h.deps.Clock()
	switch assessment.AvailabilityAt(sa, now) {
	case assessment.Active:
		return router.Push(sessionscreen.New(h.deps, h.user, sa.Assessment))
	case assessment.Submitted:
		return router.Push(summary.New(h.deps, h.user, sa.Assessment))
	case assessment.Upcoming:
		return screen.Toast("Opens "+sa.StartDatetime.Local().Format("Jan 02 at 15:04"), false)
	default:
		return screen.Toast("This assessment has ended", true)
	}
}

func renderBadge(a assessment.Availability) string {
	label := strings.ToUpper(a.String())
	switch a {
	case assessment.Active:
		return theme.BadgeActive.Render(label)
	case assessment.Upcoming:
		return theme.BadgeUpcoming.Render(label)
	case assessment.Submitted:
		return theme.BadgeSubmitted.Render(label)
	default:
		return theme.BadgeEnded.Render(label)
	}
}

func detailLine(sa assessment.StudentAssessment, state assessment.Availability, now time.Time) string {
	parts := []string{fmt.Sprintf("%d questions", sa.TotalNumberOfQuestions)}
	if n := len(sa.Topics); n > 0 {
		parts = append(parts, fmt.Sprintf("%d topics", n))
	}
	switch state {
	case assessment.Active:
		parts = append(parts, assessment.TimeRemaining(sa.EndDatetime, now))
	case assessment.Upcoming:
		parts = append(parts, "starts "+sa.StartDatetime.Local().Format("Jan 02 15:04"))
	case assessment.Submitted:
		parts = append(parts, "view results")
	}
	return strings.Join(parts, "  ·  ")
}

func (h *HomeScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	switch {
	case h.loading && len(h.items) == 0:
		return center.Foreground(theme.TextDim).Render("\n\n  Loading assessments...")
	case h.errMsg != "":
		return center.Render(fmt.Sprintf("\n\n%s\n\n%s",
			theme.ErrorText.Render(h.errMsg), theme.Hint.Render("Press r to retry")))
	case len(h.items) == 0:
		return center.Foreground(theme.TextDim).Italic(true).Render("\n\n  No assessments assigned yet.")
	}

	greeting := theme.Title.Render(fmt.Sprintf("Hello, %s", firstName(h.user.Name)))
	sub := theme.Subtitle.Render(fmt.Sprintf("%d assessments", len(h.items)))
	cw := min(width-4, 90)
	body := h.menu.View(cw, height-4)
	return lipgloss.JoinVertical(lipgloss.Left, "", greeting+"  "+sub, "", body)
}

func firstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return "there"
}
