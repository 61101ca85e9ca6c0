package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/zuvy/assess/internal/ui/theme"
)

// MenuItem is one row of a Menu. Badge is rendered as is after the label;
// Detail is a dimmed second line.
type MenuItem struct {
	Label    string
	Badge    string
	Detail   string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical list with a cursor that scrolls to stay visible.
type Menu struct {
	Items    []MenuItem
	Selected int
	offset   int
}

// NewMenu creates a new menu with the cursor on the first enabled item.
func NewMenu(items []MenuItem) Menu {
	selected := 0
	for i, item := range items {
		if !item.Disabled {
			selected = i
			break
		}
	}
	return Menu{
		Items:    items,
		Selected: selected,
	}
}

// Current returns the item under the cursor.
func (m Menu) Current() (MenuItem, bool) {
	if m.Selected < 0 || m.Selected >= len(m.Items) {
		return MenuItem{}, false
	}
	return m.Items[m.Selected], true
}

// Update handles keyboard navigation.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch kmsg.String() {
	case "up", "k":
		for i := m.Selected - 1; i >= 0; i-- {
			if !m.Items[i].Disabled {
				m.Selected = i
				break
			}
		}
	case "down", "j":
		for i := m.Selected + 1; i < len(m.Items); i++ {
			if !m.Items[i].Disabled {
				m.Selected = i
				break
			}
		}
	case "enter":
		if item, ok := m.Current(); ok && item.Action != nil && !item.Disabled {
			return m, item.Action()
		}
	}

	return m, nil
}

// View renders at most height lines of the menu.
func (m *Menu) View(width, height int) string {
	const rowHeight = 3
	visible := max(height/rowHeight, 1)
	if m.Selected < m.offset {
		m.offset = m.Selected
	}
	if m.Selected >= m.offset+visible {
		m.offset = m.Selected - visible + 1
	}

	var b strings.Builder
	end := min(len(m.Items), m.offset+visible)
	for i := m.offset; i < end; i++ {
		item := m.Items[i]
		label := "    " + item.Label
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == m.Selected {
			label = "  ▸ " + item.Label
			style = theme.Selected
		}
		if item.Disabled {
			style = style.Foreground(theme.TextDim)
		}
		line := style.Render(label)
		if item.Badge != "" {
			line += "  " + item.Badge
		}
		b.WriteString(lipgloss.NewStyle().MaxWidth(width).Render(line) + "\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).MaxWidth(width).Render("      "+item.Detail) + "\n\n")
	}
	return b.String()
}
