package session

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/zuvy/assess/internal/assessment"
	sess "github.com/zuvy/assess/internal/session"
	"github.com/zuvy/assess/internal/ui/components"
	"github.com/zuvy/assess/internal/ui/layout"
	"github.com/zuvy/assess/internal/ui/theme"
)

func renderLoading(width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n  Loading questions...")
}

func renderError(width, height int, msg string) string {
	body := theme.ErrorText.Render(msg) + "\n\n" + theme.Hint.Render("Press r to retry or Esc to go back")
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render("\n\n" + body)
}

// renderQuestionView renders the sidebar next to the current question.
// The sidebar is hidden on narrow terminals unless it has focus.
func (s *SessionScreen) renderQuestionView(width, height int) string {
	showSidebar := !layout.IsCompactWidth(width) || s.sidebarFocus
	mainWidth := width - 2
	var sidebar string
	if showSidebar {
		sidebar = s.renderSidebar(height)
		mainWidth = width - lipgloss.Width(sidebar) - 3
	}
	main := s.renderQuestion(mainWidth)
	if !showSidebar {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, "  ", main)
}

func (s *SessionScreen) renderSidebar(height int) string {
	state := s.state
	var b strings.Builder
	title := "Questions"
	if s.sidebarFocus {
		title = "Go to"
	}
	b.WriteString(theme.Subtitle.Bold(true).Render(title) + "\n")

	visible := max(height-4, 1)
	start := 0
	cursor := state.Current
	if s.sidebarFocus {
		cursor = s.sidebarCursor
	}
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := min(state.Total(), start+visible)
	for i := start; i < end; i++ {
		mark := "○"
		style := lipgloss.NewStyle().Foreground(theme.TextDim)
		if state.IsAnswered(i) {
			mark = "●"
			style = style.Foreground(theme.Secondary)
		}
		pointer := "  "
		if i == state.Current {
			pointer = "▸ "
			style = style.Bold(true).Foreground(theme.Text)
		}
		if s.sidebarFocus && i == s.sidebarCursor {
			style = theme.Selected
		}
		b.WriteString(style.Render(fmt.Sprintf("%s%s %2d", pointer, mark, i+1)) + "\n")
	}
	return lipgloss.NewStyle().
		Width(layout.SidebarWidth).
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(theme.Border).
		Render(b.String())
}

func (s *SessionScreen) renderQuestion(width int) string {
	state := s.state
	q := state.CurrentQuestion()
	if q == nil {
		return ""
	}

	var b strings.Builder

	infoLeft := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render(fmt.Sprintf("Question %d of %d", state.Current+1, state.Total()))
	meta := []string{}
	if q.Topic != "" {
		meta = append(meta, q.Topic)
	}
	if q.DifficultyLabel != "" {
		meta = append(meta, q.DifficultyLabel)
	}
	infoRight := lipgloss.NewStyle().Foreground(theme.TextDim).Render(strings.Join(meta, "  ·  "))
	infoLine := infoLeft
	if pad := width - lipgloss.Width(infoLeft) - lipgloss.Width(infoRight); pad > 0 {
		infoLine += strings.Repeat(" ", pad) + infoRight
	}
	b.WriteString(infoLine + "\n")

	answered := state.AnsweredCount()
	bar := components.NewProgressBar(fmt.Sprintf("%d answered", answered),
		float64(answered)/float64(max(state.Total(), 1)), false, width)
	b.WriteString(bar.View() + "\n")
	b.WriteString(layout.Rule(width) + "\n\n")

	b.WriteString(lipgloss.NewStyle().Width(width).Foreground(theme.Text).Bold(true).Render(q.Text))
	b.WriteString("\n")
	if q.Type == assessment.MultiAnswer {
		b.WriteString(theme.Hint.Render("Select all that apply") + "\n")
	}
	b.WriteString("\n")

	current := state.Current
	b.WriteString(s.choice.View(width, func(i int) bool {
		return i < len(q.Options) && state.IsSelected(current, q.Options[i].ID)
	}))

	b.WriteString("\n")
	switch {
	case state.Phase == sess.PhaseSubmitting:
		b.WriteString(theme.Hint.Render("Submitting..."))
	case state.IsLast():
		b.WriteString(theme.Hint.Render("Last question. Press s to submit."))
	default:
		b.WriteString(theme.Hint.Render("Press n for the next question"))
	}
	return b.String()
}
