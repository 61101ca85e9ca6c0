package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/zuvy/assess/internal/router"
	"github.com/zuvy/assess/internal/screen"
	"github.com/zuvy/assess/internal/store"
	"github.com/zuvy/assess/internal/ui/layout"
	"github.com/zuvy/assess/internal/ui/theme"
)

const historyLimit = 50

type historyLoadedMsg struct {
	Records []store.SubmissionRecord
	Err     error
}

// HistoryScreen lists the submissions made from this machine.
type HistoryScreen struct {
	repo     store.SubmissionRepo
	records  []store.SubmissionRecord
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(repo store.SubmissionRepo) *HistoryScreen {
	return &HistoryScreen{
		repo:     repo,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		if s.repo == nil {
			return historyLoadedMsg{}
		}
		records, err := s.repo.List(context.Background(), store.QueryOpts{Limit: historyLimit})
		return historyLoadedMsg{Records: records, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "Submission History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.records = msg.Records
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, router.Pop()
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.records)-1 {
				s.selected++
			}
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	if s.errMsg != "" {
		return center.Foreground(theme.Error).Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return center.Foreground(theme.TextDim).Render("\n\n  Loading history...")
	}
	if len(s.records) == 0 {
		return center.Foreground(theme.TextDim).Italic(true).Render("\n\n  No submissions yet.")
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, rec := range s.records {
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			prefix = "▸ "
			style = theme.Selected
		}
		status := theme.Correct.Render("submitted")
		if !rec.Success {
			status = theme.Incorrect.Render("failed")
		}
		line := fmt.Sprintf("%s%s  Assessment #%d  %d/%d answered  ",
			prefix, rec.Timestamp.Local().Format("Jan 02, 2006 15:04"), rec.AssessmentID, rec.Answered, rec.Total)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)+status))
		b.WriteString("\n")

		if s.expanded[i] {
			detail := fmt.Sprintf("    Session %s  ·  advisory score %d of %d", rec.SessionID, rec.AdvisoryCorrect, rec.Answered)
			if rec.ErrorMessage != "" {
				detail += "\n    " + rec.ErrorMessage
			}
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
				lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).Render(detail)))
			b.WriteString("\n")
		}
	}
	return b.String()
}
