// ABOUTME: Shared lipgloss styles for the studio TUI
// ABOUTME: Yarn-toned palette plus panel, status and frame styles

package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Palette
	Primary   = lipgloss.Color("#D9467A") // Rose yarn
	Secondary = lipgloss.Color("#4FA37A") // Sage
	Warning   = lipgloss.Color("#E6A23C") // Mustard
	Danger    = lipgloss.Color("#D64545") // Brick
	Muted     = lipgloss.Color("#8A8079") // Oatmeal gray
	Text      = lipgloss.Color("#F7F1EA") // Cream
	Accent    = lipgloss.Color("#9B6BD3") // Lavender
	Info      = lipgloss.Color("#4C8BD6") // Denim

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			MarginBottom(1)

	StatusOK = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	StatusWarning = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	StatusCritical = lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true)

	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(1, 2)

	ActivePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	Help = lipgloss.NewStyle().
		Foreground(Muted).
		MarginTop(1)

	// Selected is the highlighted row of a list.
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Normal = lipgloss.NewStyle().
		Foreground(Text)

	KeyStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	ValueStyle = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)
)

// Stale dims content that is shown while a refetch is pending.
func Stale(s string) string {
	return lipgloss.NewStyle().Foreground(Muted).Render(s)
}
