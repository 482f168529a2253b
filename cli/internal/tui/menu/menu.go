// ABOUTME: Navigation menu for the studio TUI
// ABOUTME: Lists the pages the active identity may open; admin appears only for admins

package menu

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/caffeinepub/crocheting-app/cli/internal/studio"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/icons"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/styles"
)

// PageSelectedMsg is sent when the user opens a page.
type PageSelectedMsg struct {
	Page studio.Page
}

// CancelledMsg is sent when the user leaves the menu.
type CancelledMsg struct{}

// Menu is the navigation list.
type Menu struct {
	entries []studio.Page
	cursor  int
}

// New creates a menu over entries.
func New(entries []studio.Page) *Menu {
	m := &Menu{}
	m.SetEntries(entries)
	return m
}

// SetEntries replaces the entries, keeping the cursor on the same page
// when it is still listed.
func (m *Menu) SetEntries(entries []studio.Page) {
	var current studio.Page
	hadCurrent := m.cursor < len(m.entries)
	if hadCurrent {
		current = m.entries[m.cursor]
	}
	m.entries = slices.Clone(entries)
	m.cursor = 0
	if hadCurrent {
		if i := slices.Index(m.entries, current); i >= 0 {
			m.cursor = i
		}
	}
}

// Entries returns the listed pages.
func (m *Menu) Entries() []studio.Page {
	return slices.Clone(m.entries)
}

// Selected returns the page under the cursor.
func (m *Menu) Selected() (studio.Page, bool) {
	if m.cursor >= len(m.entries) {
		return 0, false
	}
	return m.entries[m.cursor], true
}

// Init implements tea.Model
func (m *Menu) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch s := key.String(); s {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "enter":
		if page, ok := m.Selected(); ok {
			return m, func() tea.Msg { return PageSelectedMsg{Page: page} }
		}
	case "esc", "q":
		return m, func() tea.Msg { return CancelledMsg{} }
	default:
		if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			i := int(s[0] - '1')
			if i < len(m.entries) {
				m.cursor = i
				page := m.entries[i]
				return m, func() tea.Msg { return PageSelectedMsg{Page: page} }
			}
		}
	}
	return m, nil
}

// Icon returns the icon shown for a page.
func Icon(p studio.Page) icons.Icon {
	switch p {
	case studio.PageHome:
		return icons.Home
	case studio.PageGallery:
		return icons.Gallery
	case studio.PageTutorials:
		return icons.Tutorials
	case studio.PageMyProjects:
		return icons.Projects
	case studio.PagePublish:
		return icons.Publish
	case studio.PageTrack:
		return icons.Track
	case studio.PageAdmin:
		return icons.Admin
	default:
		return icons.Info
	}
}

// View implements tea.Model
func (m *Menu) View() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render("Studio"))
	b.WriteString("\n")
	for i, p := range m.entries {
		line := fmt.Sprintf("%d %s %s", i+1, Icon(p).String(), p.String())
		if i == m.cursor {
			b.WriteString("> " + styles.Selected.Render(line) + "\n")
		} else {
			b.WriteString("  " + styles.Normal.Render(line) + "\n")
		}
	}
	return b.String()
}
