// ABOUTME: Inline badges for roles, upload states and tutorial difficulty
// ABOUTME: Colored labels used in lists and panel headers

package widgets

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/caffeinepub/crocheting-app/cli/internal/client"
	"github.com/caffeinepub/crocheting-app/cli/internal/role"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/styles"
	"github.com/caffeinepub/crocheting-app/cli/internal/upload"
)

// Level picks a badge color.
type Level int

const (
	LevelOK Level = iota
	LevelWarning
	LevelCritical
	LevelInfo
	LevelNeutral
)

func (l Level) colors() (bg, fg lipgloss.Color) {
	white := lipgloss.Color("#FFFFFF")
	switch l {
	case LevelOK:
		return styles.Secondary, white
	case LevelWarning:
		return styles.Warning, lipgloss.Color("#000000")
	case LevelCritical:
		return styles.Danger, white
	case LevelInfo:
		return styles.Info, white
	default:
		return styles.Muted, white
	}
}

// Badge renders text on a colored background.
func Badge(text string, level Level) string {
	bg, fg := level.colors()
	return lipgloss.NewStyle().
		Background(bg).
		Foreground(fg).
		Padding(0, 1).
		Bold(true).
		Render(text)
}

// RoleBadge shows ADMIN only once the role is confirmed.
func RoleBadge(flag role.Flag) string {
	switch flag {
	case role.FlagGranted:
		return Badge("ADMIN", LevelInfo)
	case role.FlagDenied:
		return Badge("MEMBER", LevelNeutral)
	default:
		return Badge("…", LevelNeutral)
	}
}

// StateBadge labels an upload item.
func StateBadge(s upload.State) string {
	switch s {
	case upload.StateDone:
		return Badge("DONE", LevelOK)
	case upload.StateFailed:
		return Badge("FAILED", LevelCritical)
	case upload.StateUploading:
		return Badge("UPLOADING", LevelInfo)
	default:
		return Badge("QUEUED", LevelNeutral)
	}
}

// DifficultyBadge labels a tutorial.
func DifficultyBadge(d string) string {
	switch d {
	case client.DifficultyBeginner:
		return Badge(d, LevelOK)
	case client.DifficultyIntermediate:
		return Badge(d, LevelWarning)
	case client.DifficultyAdvanced:
		return Badge(d, LevelCritical)
	default:
		return Badge(d, LevelNeutral)
	}
}
