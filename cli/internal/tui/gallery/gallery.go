// ABOUTME: Scrollable project list for the gallery and my-projects screens
// ABOUTME: Shows creator, completion and materials for the highlighted project

package gallery

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/caffeinepub/crocheting-app/cli/internal/client"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/icons"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/styles"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/widgets"
)

// Gallery lists projects with one expanded.
type Gallery struct {
	title    string
	projects []client.Project
	cursor   int
	width    int
}

// New creates a gallery view.
func New(title string, projects []client.Project, width int) *Gallery {
	return &Gallery{title: title, projects: projects, width: width}
}

// SetProjects replaces the list, keeping the cursor in range.
func (g *Gallery) SetProjects(projects []client.Project) {
	g.projects = projects
	if g.cursor >= len(projects) {
		g.cursor = max(0, len(projects)-1)
	}
}

// SetWidth updates the render width.
func (g *Gallery) SetWidth(width int) {
	g.width = width
}

// Selected returns the highlighted project.
func (g *Gallery) Selected() (client.Project, bool) {
	if g.cursor >= len(g.projects) {
		return client.Project{}, false
	}
	return g.projects[g.cursor], true
}

// Move shifts the cursor by delta within the list.
func (g *Gallery) Move(delta int) {
	g.cursor = max(0, min(g.cursor+delta, len(g.projects)-1))
}

// View renders the list
func (g *Gallery) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(g.title))
	sb.WriteString("\n")

	if len(g.projects) == 0 {
		sb.WriteString(styles.Subtitle.Render("No projects yet."))
		return sb.String()
	}

	for i, p := range g.projects {
		line := fmt.Sprintf("%s %s", icons.Projects, p.Title)
		if i == g.cursor {
			sb.WriteString("> " + styles.Selected.Render(line) + "\n")
		} else {
			sb.WriteString("  " + styles.Normal.Render(line) + "\n")
		}
	}

	if p, ok := g.Selected(); ok {
		sb.WriteString("\n")
		sb.WriteString(g.detail(p))
	}
	return lipgloss.NewStyle().Width(g.width).Render(sb.String())
}

func (g *Gallery) detail(p client.Project) string {
	var sb strings.Builder
	sb.WriteString(styles.Subtitle.Render("by " + p.Creator))
	sb.WriteString("\n")
	if p.Description != "" {
		sb.WriteString(p.Description + "\n\n")
	}
	sb.WriteString(widgets.CompletionBar(p.CompletionPercentage, 20))
	sb.WriteString(fmt.Sprintf("  %d min spent  %s %d image(s)\n", p.TimeSpentMinutes, icons.Image, len(p.Images)))
	for _, m := range p.Materials {
		sb.WriteString(fmt.Sprintf("  %s %s: %s %s\n", icons.Material, m.Name, humanize.Ftoa(m.Quantity), m.Unit))
	}
	if p.Instructions != "" {
		sb.WriteString("\n" + p.Instructions + "\n")
	}
	return sb.String()
}
