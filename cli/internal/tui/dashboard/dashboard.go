// ABOUTME: Home screen panel for the studio TUI
// ABOUTME: Shows who is logged in, their profile and counts across the studio

package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/caffeinepub/crocheting-app/cli/internal/client"
	"github.com/caffeinepub/crocheting-app/cli/internal/role"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/icons"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/styles"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/widgets"
)

// Count is a number that may not have loaded yet.
type Count struct {
	N     int
	Known bool
}

// Summary is everything the home panel shows.
type Summary struct {
	Principal string // empty when anonymous
	Profile   *client.Profile
	Role      role.Flag
	Gallery   Count
	Mine      Count
	Tutorials Count
	// NeedsProfile is set once the caller's profile is known to be missing.
	NeedsProfile bool
}

// Dashboard renders the home panel.
type Dashboard struct {
	summary Summary
	width   int
	height  int
}

// New creates a dashboard.
func New(s Summary, width, height int) *Dashboard {
	return &Dashboard{summary: s, width: width, height: height}
}

// Update replaces the summary.
func (d *Dashboard) Update(s Summary) {
	d.summary = s
}

// SetSize updates the dashboard dimensions
func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// View renders the dashboard
func (d *Dashboard) View() string {
	s := d.summary
	var sb strings.Builder

	if s.Principal == "" {
		sb.WriteString(styles.Title.Render("Welcome to the studio"))
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s Press l to log in and share your projects.\n\n", icons.Login))
	} else {
		name := s.Principal
		if s.Profile != nil && s.Profile.Name != "" {
			name = s.Profile.Name
		}
		sb.WriteString(styles.Title.Render("Hello, "+name) + " " + widgets.RoleBadge(s.Role))
		sb.WriteString("\n")
		sb.WriteString(styles.Subtitle.Render(s.Principal))
		sb.WriteString("\n")
		if s.NeedsProfile {
			sb.WriteString(styles.StatusWarning.Render(icons.Warning.String() + " Set up your profile so others know who made your projects."))
			sb.WriteString("\n")
		} else if s.Profile != nil && s.Profile.Bio != "" {
			sb.WriteString(s.Profile.Bio)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	blocks := []string{
		widgets.CountBlock(icons.Gallery, "Gallery", s.Gallery.N, s.Gallery.Known, "projects shared"),
		widgets.CountBlock(icons.Tutorials, "Tutorials", s.Tutorials.N, s.Tutorials.Known, "guides"),
	}
	if s.Principal != "" {
		blocks = append(blocks, widgets.CountBlock(icons.Projects, "Mine", s.Mine.N, s.Mine.Known, "your projects"))
	}
	if d.width >= 3*widgets.BlockWidth {
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, blocks...))
	} else {
		sb.WriteString(lipgloss.JoinVertical(lipgloss.Left, blocks...))
	}

	return lipgloss.NewStyle().
		Width(d.width).
		Render(sb.String())
}
