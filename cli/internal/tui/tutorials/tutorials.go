// ABOUTME: Tutorial list for the tutorials and admin screens
// ABOUTME: Expands the highlighted tutorial into its materials and numbered steps

package tutorials

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/caffeinepub/crocheting-app/cli/internal/client"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/icons"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/styles"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/widgets"
)

// List shows tutorials with one expanded.
type List struct {
	title     string
	tutorials []client.Tutorial
	cursor    int
	width     int
}

// New creates a tutorial list.
func New(title string, tutorials []client.Tutorial, width int) *List {
	return &List{title: title, tutorials: tutorials, width: width}
}

// SetTutorials replaces the list, keeping the cursor in range.
func (l *List) SetTutorials(tutorials []client.Tutorial) {
	l.tutorials = tutorials
	if l.cursor >= len(tutorials) {
		l.cursor = max(0, len(tutorials)-1)
	}
}

// SetWidth updates the render width.
func (l *List) SetWidth(width int) {
	l.width = width
}

// Selected returns the highlighted tutorial.
func (l *List) Selected() (client.Tutorial, bool) {
	if l.cursor >= len(l.tutorials) {
		return client.Tutorial{}, false
	}
	return l.tutorials[l.cursor], true
}

// Move shifts the cursor by delta within the list.
func (l *List) Move(delta int) {
	l.cursor = max(0, min(l.cursor+delta, len(l.tutorials)-1))
}

// View renders the list
func (l *List) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(l.title))
	sb.WriteString("\n")

	if len(l.tutorials) == 0 {
		sb.WriteString(styles.Subtitle.Render("No tutorials yet."))
		return sb.String()
	}

	for i, t := range l.tutorials {
		line := fmt.Sprintf("%s %s", icons.Tutorials, t.Title)
		if i == l.cursor {
			sb.WriteString("> " + styles.Selected.Render(line) + " " + widgets.DifficultyBadge(t.Difficulty) + "\n")
		} else {
			sb.WriteString("  " + styles.Normal.Render(line) + "\n")
		}
	}

	if t, ok := l.Selected(); ok {
		sb.WriteString("\n")
		if t.Description != "" {
			sb.WriteString(t.Description + "\n\n")
		}
		for _, m := range t.Materials {
			sb.WriteString(fmt.Sprintf("  %s %s\n", icons.Material, m))
		}
		if len(t.Materials) > 0 {
			sb.WriteString("\n")
		}
		for i, step := range t.Steps {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
		}
	}
	return lipgloss.NewStyle().Width(l.width).Render(sb.String())
}
