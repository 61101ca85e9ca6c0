package components

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/zuvy/assess/internal/ui/theme"
)

// Button is a styled button.
type Button struct {
	Label  string
	Active bool
}

// View renders the button.
func (b Button) View() string {
	if b.Active {
		return theme.ButtonActive.Render("▸ " + b.Label)
	}
	return theme.ButtonInactive.Render(b.Label)
}

// ConfirmResultMsg reports the answer of a Confirm dialog.
type ConfirmResultMsg struct {
	ID        string
	Confirmed bool
}

// Confirm is a yes/no dialog with two buttons.
type Confirm struct {
	ID      string
	Prompt  string
	Yes, No string
	yes     bool
}

// NewConfirm creates a dialog with focus on No.
func NewConfirm(id, prompt, yes, no string) Confirm {
	return Confirm{ID: id, Prompt: prompt, Yes: yes, No: no}
}

// Update handles ←/→/Tab to move focus, Enter to answer, and y/n shortcuts.
func (c Confirm) Update(msg tea.Msg) (Confirm, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}
	switch kmsg.String() {
	case "left", "right", "tab", "h", "l":
		c.yes = !c.yes
	case "y":
		return c, c.answer(true)
	case "n", "esc":
		return c, c.answer(false)
	case "enter":
		return c, c.answer(c.yes)
	}
	return c, nil
}

func (c Confirm) answer(yes bool) tea.Cmd {
	id := c.ID
	return func() tea.Msg { return ConfirmResultMsg{ID: id, Confirmed: yes} }
}

// View renders the prompt above the two buttons.
func (c Confirm) View(width int) string {
	buttons := lipgloss.JoinHorizontal(lipgloss.Center,
		Button{Label: c.Yes, Active: c.yes}.View(),
		"   ",
		Button{Label: c.No, Active: !c.yes}.View(),
	)
	body := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(c.Prompt) + "\n\n" + buttons
	return theme.Card.Width(min(width-4, 64)).Render(body)
}
