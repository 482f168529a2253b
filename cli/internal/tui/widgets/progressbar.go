// ABOUTME: Progress bars for image uploads and project completion
// ABOUTME: Bar color follows the upload state or how far a project has come

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/caffeinepub/crocheting-app/cli/internal/tui/styles"
	"github.com/caffeinepub/crocheting-app/cli/internal/upload"
)

var emptyColor = lipgloss.Color("#4A423D")

// Bar renders a bracketed bar filled to percent.
func Bar(percent float64, width int, filledColor lipgloss.Color) string {
	if width <= 0 {
		width = 20
	}
	percent = max(0, min(percent, 100))
	filled := int(percent / 100.0 * float64(width))

	var bar strings.Builder
	bar.WriteString("[")
	bar.WriteString(lipgloss.NewStyle().Foreground(filledColor).Render(strings.Repeat("█", filled)))
	bar.WriteString(lipgloss.NewStyle().Foreground(emptyColor).Render(strings.Repeat("░", width-filled)))
	bar.WriteString("]")
	return bar.String()
}

// UploadBar renders one staged item: bar, percentage and state.
func UploadBar(v upload.View, width int) string {
	color := styles.Info
	switch v.State {
	case upload.StateDone:
		color = styles.Secondary
	case upload.StateFailed:
		color = styles.Danger
	case upload.StatePending:
		color = styles.Muted
	}
	return fmt.Sprintf("%s %3d%% %s", Bar(float64(v.Progress), width, color), v.Progress, StateBadge(v.State))
}

// CompletionBar renders a project's completion percentage.
func CompletionBar(percent, width int) string {
	color := styles.Warning
	switch {
	case percent >= 100:
		color = styles.Secondary
	case percent >= 50:
		color = styles.Accent
	}
	return fmt.Sprintf("%s %3d%%", Bar(float64(percent), width, color), percent)
}
