// ABOUTME: Rendering for the studio TUI screens and the header/footer frame
// ABOUTME: Pages show a loading, disabled or error placeholder until their query has data

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/caffeinepub/crocheting-app/cli/internal/querycache"
	"github.com/caffeinepub/crocheting-app/cli/internal/studio"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/icons"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/menu"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/styles"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/widgets"
)

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenPage:
		content = a.viewPage()
	case ScreenWizard:
		if a.wizard != nil {
			content = a.wizard.View()
		}
	case ScreenImages:
		content = a.viewImages()
	case ScreenSubmitting:
		content = a.viewImages()
	default:
		content = a.menu.View()
	}

	if line := a.statusLine(); line != "" {
		content += "\n" + line
	}
	return a.wrapWithFrame(content)
}

// viewPage renders the open page beside its actions pane.
func (a *App) viewPage() string {
	var body string
	if placeholder, ok := a.placeholder(a.page); ok {
		body = placeholder
	} else {
		switch a.page {
		case studio.PageGallery:
			body = a.gallery.View()
		case studio.PageMyProjects:
			body = a.mine.View()
		case studio.PageTutorials:
			body = a.guides.View()
		case studio.PageAdmin:
			body = a.admin.View()
		default:
			body = a.home.View()
		}
		if res, ok := a.results[a.page]; ok && res.Stale {
			body = styles.Stale(body)
		}
	}

	if a.width < minTerminalWidth {
		return styles.ActivePanel.Width(a.pageWidth()).Render(body)
	}
	leftPane := styles.ActivePanel.Width(a.pageWidth()).Render(body)
	rightPane := styles.Panel.Width(a.actionsWidth()).Render(a.viewActions())
	return lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)
}

// placeholder stands in for a page whose list has nothing to show yet.
func (a *App) placeholder(page studio.Page) (string, bool) {
	if page == studio.PageHome {
		return "", false
	}
	res, ok := a.results[page]
	if !ok || res.HasValue {
		return "", false
	}
	title := styles.Title.Render(menu.Icon(page).String()+" "+page.String()) + "\n"
	switch res.Status {
	case querycache.StatusDisabled:
		return title + styles.Subtitle.Render(icons.Login.String()+" Log in to load "+strings.ToLower(page.String())+"."), true
	case querycache.StatusError:
		return title + styles.StatusCritical.Render(icons.Critical.String()+" "+res.Err.Error()), true
	default:
		return title + a.spinner.View() + " Loading...", true
	}
}

// viewActions lists what can be done from the open page.
func (a *App) viewActions() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render("Actions"))
	sb.WriteString("\n\n")

	if a.studio.Identity() == nil {
		sb.WriteString(icons.Login.String() + " l  Log in\n")
	} else {
		sb.WriteString(icons.Publish.String() + " p  Publish a project\n")
		sb.WriteString(icons.Track.String() + " t  Track progress\n")
		if a.page == studio.PageAdmin {
			sb.WriteString(icons.Critical.String() + " d  Delete tutorial\n")
			sb.WriteString(styles.Help.Render("Create and edit tutorials with\n\"crochet tutorials\"."))
			sb.WriteString("\n")
		}
		sb.WriteString(icons.Login.String() + " o  Log out\n")
	}
	sb.WriteString(icons.Refresh.String() + " r  Refresh\n")
	sb.WriteString(icons.Back.String() + " b  Back to menu\n")
	sb.WriteString(icons.Quit.String() + " q  Quit\n")
	return sb.String()
}

// viewImages renders the image picker and everything staged so far.
func (a *App) viewImages() string {
	var sb strings.Builder
	if a.picker != nil && a.screen == ScreenImages {
		sb.WriteString(a.picker.View())
		sb.WriteString("\n\n")
	}
	if a.screen == ScreenSubmitting {
		title := "Publishing"
		if a.tracking != nil {
			title = "Updating"
		}
		sb.WriteString(styles.Title.Render(title))
		sb.WriteString("\n")
	}
	if a.pipeline == nil {
		return sb.String()
	}
	for _, v := range a.pipeline.Items() {
		name := v.Name
		if v.Size > 0 {
			name += " (" + humanize.Bytes(uint64(v.Size)) + ")"
		}
		sb.WriteString(fmt.Sprintf("%s %-32s %s\n", icons.Image, name, widgets.UploadBar(v, 20)))
		if v.Err != nil {
			sb.WriteString("   " + styles.StatusCritical.Render(v.Err.Error()) + "\n")
		}
	}
	return sb.String()
}

// statusLine is the flash message below the content.
func (a *App) statusLine() string {
	switch {
	case a.busy != "":
		return a.spinner.View() + " " + a.busy + "..."
	case a.err != nil:
		return styles.StatusCritical.Render(icons.Critical.String() + " " + a.err.Error())
	case a.status != "":
		return styles.StatusOK.Render(icons.Info.String() + " " + a.status)
	}
	return ""
}

// frameWidth is the width of the header and footer. One column is left
// free so the frame does not wrap on terminals that reserve the last cell.
func (a *App) frameWidth() int {
	return max(a.width-1, minTerminalWidth)
}

// pageWidth calculates the width for the page pane
func (a *App) pageWidth() int {
	if a.width < minTerminalWidth {
		return max(a.width-panelPadding, 0)
	}
	return (a.width - panelPadding) * 2 / 3
}

// actionsWidth calculates the width for the actions pane
func (a *App) actionsWidth() int {
	return a.width - a.pageWidth() - 4
}

// contentHeight calculates the height available for page content
func (a *App) contentHeight() int {
	// Header, the newlines around the content, the panel's border and
	// padding, and the footer.
	return a.height - 8
}

func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftText := fmt.Sprintf(" %s %s ", icons.App, titleStyle.Render("Crochet Studio"))

	rightText := " " + contextStyle.Render("not logged in") + " "
	if id := a.studio.Identity(); id != nil {
		who := shortPrincipal(id.Principal)
		if a.studio.Connections().IsFetching() {
			who += " (connecting)"
		}
		rightText = " " + contextStyle.Render(who) + " " + widgets.RoleBadge(a.studio.Role()) + " "
	}

	leftWidth := lipgloss.Width(leftText)
	rightWidth := lipgloss.Width(rightText)
	fillWidth := width - 4 - leftWidth - rightWidth // -4 for ╭─ and ─╮
	if fillWidth < 0 {
		fillWidth = 0
	}

	return borderStyle.Render("╭─") + leftText + borderStyle.Render(strings.Repeat("─", fillWidth)) + rightText + borderStyle.Render("─╮")
}

func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	// Build keyboard shortcuts based on current screen
	var shortcuts []string
	switch a.screen {
	case ScreenMenu:
		shortcuts = []string{"↑↓ Navigate", "Enter Open", "l Login", "q Quit"}
	case ScreenPage:
		shortcuts = []string{"↑↓ Browse", "r Refresh", "b Back", "q Quit"}
	case ScreenWizard:
		shortcuts = []string{"Tab Next", "Enter Confirm", "Esc Cancel"}
	case ScreenImages:
		shortcuts = []string{"↑↓ Navigate", "Enter Select", "ctrl+x Remove last", "Esc Cancel"}
	case ScreenSubmitting:
		shortcuts = []string{"ctrl+c Quit"}
	}

	var styledShortcuts []string
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		if len(parts) == 2 {
			styledShortcuts = append(styledShortcuts, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
		} else {
			styledShortcuts = append(styledShortcuts, s)
		}
	}

	leftText := " " + strings.Join(styledShortcuts, "  ") + " "
	leftPlainText := " " + strings.Join(shortcuts, "  ") + " "

	rightText := ""
	rightPlainText := ""
	if !a.lastUpdate.IsZero() && a.screen == ScreenPage {
		elapsed := formatTimeSince(a.lastUpdate, time.Now())
		rightText = " " + statusStyle.Render("Updated "+elapsed) + " "
		rightPlainText = " Updated " + elapsed + " "
	}

	leftWidth := lipgloss.Width(leftPlainText)
	rightWidth := lipgloss.Width(rightPlainText)
	fillWidth := width - 4 - leftWidth - rightWidth // -4 for ╰─ and ─╯
	if fillWidth < 0 {
		fillWidth = 0
	}

	return borderStyle.Render("╰─") + leftText + borderStyle.Render(strings.Repeat("─", fillWidth)) + rightText + borderStyle.Render("─╯")
}

// formatTimeSince formats the time since t in human-readable form
func formatTimeSince(t, now time.Time) string {
	if now.Sub(t) < 5*time.Second {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// shortPrincipal keeps the header readable for long principals.
func shortPrincipal(p string) string {
	const keep = 16
	r := []rune(p)
	if len(r) <= keep {
		return p
	}
	return string(r[:keep-1]) + "…"
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}
