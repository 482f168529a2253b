// ABOUTME: Compact count blocks for the studio home screen
// ABOUTME: A bordered panel with an icon title, a value and a caption

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/caffeinepub/crocheting-app/cli/internal/tui/icons"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/styles"
)

// BlockWidth is the default outer width of a metric block.
const BlockWidth = 22

// MetricBlock renders a value under a titled border.
func MetricBlock(icon icons.Icon, title, value, caption string, width int) string {
	if width <= 0 {
		width = BlockWidth
	}
	inner := width - 4

	head := truncate(fmt.Sprintf("%s %s", icon.String(), title), inner)
	top := fmt.Sprintf("┌─ %s %s┐",
		lipgloss.NewStyle().Foreground(styles.Primary).Render(head),
		strings.Repeat("─", max(0, inner-lipgloss.Width(head)-1)))

	row := func(s string) string {
		return "│  " + s + strings.Repeat(" ", max(0, inner-lipgloss.Width(s))) + "│"
	}
	border := lipgloss.NewStyle().Foreground(styles.Muted)

	return strings.Join([]string{
		border.Render(top),
		border.Render(row(styles.ValueStyle.Render(value))),
		border.Render(row(lipgloss.NewStyle().Foreground(styles.Muted).Render(truncate(caption, inner)))),
		border.Render("└" + strings.Repeat("─", width-2) + "┘"),
	}, "\n")
}

// CountBlock renders a count, or a dash while it is unknown.
func CountBlock(icon icons.Icon, title string, count int, known bool, caption string) string {
	value := "–"
	if known {
		value = fmt.Sprintf("%d", count)
	}
	return MetricBlock(icon, title, value, caption, BlockWidth)
}

// truncate shortens s to maxLen with an ellipsis.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-1]) + "…"
}
