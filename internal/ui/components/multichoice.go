package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/zuvy/assess/internal/ui/theme"
)

// MultiChoice renders the options of one question. It owns only the
// cursor; which options are chosen lives in the session state and is
// passed in on every render.
type MultiChoice struct {
	Options []string
	Cursor  int
}

// NewMultiChoice creates a selector with the cursor on the first option.
func NewMultiChoice(options []string) MultiChoice {
	return MultiChoice{Options: options}
}

// ChooseMsg is returned when an option is picked with Enter, Space or its
// number key.
type ChooseMsg struct {
	Index int
}

// Update moves the cursor and reports picks.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Options)-1 {
			m.Cursor++
		}
	case "enter", "space":
		return m, m.choose(m.Cursor)
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			i := int(key[0] - '1')
			if i < len(m.Options) {
				m.Cursor = i
				return m, m.choose(i)
			}
		}
	}
	return m, nil
}

func (m MultiChoice) choose(i int) tea.Cmd {
	if i < 0 || i >= len(m.Options) {
		return nil
	}
	return func() tea.Msg { return ChooseMsg{Index: i} }
}

// View renders the options; chosen[i] marks a selected option.
func (m MultiChoice) View(width int, chosen func(i int) bool) string {
	var b strings.Builder
	for i, opt := range m.Options {
		pointer := "  "
		if i == m.Cursor {
			pointer = "▸ "
		}
		mark := "○"
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if chosen != nil && chosen(i) {
			mark = "●"
			style = theme.Correct.Foreground(theme.Secondary)
		}
		if i == m.Cursor {
			style = style.Bold(true).Foreground(theme.Primary)
		}
		line := fmt.Sprintf("%s%s %d) %s", pointer, mark, i+1, opt)
		b.WriteString(style.Width(width).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
