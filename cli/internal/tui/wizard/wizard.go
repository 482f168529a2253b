// ABOUTME: Step-by-step forms for publishing a project and tracking progress
// ABOUTME: A bubbletea model over huh forms with a visual step indicator

package wizard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/caffeinepub/crocheting-app/cli/internal/client"
	"github.com/caffeinepub/crocheting-app/cli/internal/studio"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/icons"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/styles"
)

// Kind selects which form the wizard collects.
type Kind int

const (
	KindPublish Kind = iota
	KindTrack
)

// WizardCompleteMsg carries the collected form. Exactly one of Draft and
// Progress is set, matching the wizard's Kind.
type WizardCompleteMsg struct {
	Draft    *studio.Draft
	Progress *studio.Progress
}

// WizardCancelledMsg is sent when the wizard is cancelled
type WizardCancelledMsg struct{}

// Wizard walks the user through a form one step at a time.
type Wizard struct {
	kind  Kind
	form  *huh.Form
	step  int
	width int

	// Publish fields
	title        string
	description  string
	instructions string
	materials    string

	// Track fields
	projects   []client.Project
	project    string
	completion string
	minutes    string
}

var stepNames = map[Kind][]string{
	KindPublish: {"Details", "Materials"},
	KindTrack:   {"Project", "Progress"},
}

// ErrNoProjects is returned by NewTrack when there is nothing to track.
var ErrNoProjects = errors.New("publish a project before tracking progress")

// createTheme returns the studio's huh theme.
func createTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Group.Title = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).MarginBottom(1)
	t.Group.Description = lipgloss.NewStyle().Foreground(styles.Muted).MarginBottom(1)

	t.Focused.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(styles.Primary)
	t.Focused.Title = lipgloss.NewStyle().Foreground(styles.Accent).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(styles.Muted)
	t.Focused.ErrorIndicator = lipgloss.NewStyle().Foreground(styles.Danger).SetString(" *")
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(styles.Danger)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(styles.Primary).SetString("> ")
	t.Focused.Option = lipgloss.NewStyle().Foreground(styles.Text)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(styles.Primary)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(styles.Muted)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(styles.Primary)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(styles.Text)

	t.Blurred = t.Focused
	t.Blurred.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.HiddenBorder()).
		BorderLeft(true)
	t.Blurred.Title = lipgloss.NewStyle().Foreground(styles.Muted)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(styles.Muted).SetString("  ")
	t.Blurred.Option = lipgloss.NewStyle().Foreground(styles.Muted)

	return t
}

// NewPublish creates the publish wizard.
func NewPublish() *Wizard {
	w := &Wizard{kind: KindPublish, step: 1}
	w.form = w.createForm()
	return w
}

// NewTrack creates the progress wizard over the caller's projects.
func NewTrack(projects []client.Project) (*Wizard, error) {
	if len(projects) == 0 {
		return nil, ErrNoProjects
	}
	w := &Wizard{kind: KindTrack, step: 1, projects: projects, project: projects[0].Title}
	w.form = w.createForm()
	return w, nil
}

func (w *Wizard) createForm() *huh.Form {
	var group *huh.Group
	switch {
	case w.kind == KindPublish && w.step == 1:
		group = huh.NewGroup(
			huh.NewInput().
				Title("Title").
				CharLimit(120).
				Value(&w.title).
				Validate(required("title")),
			huh.NewText().
				Title("Description").
				Value(&w.description).
				Validate(required("description")),
			huh.NewText().
				Title("Instructions").
				Description("Optional pattern notes").
				Value(&w.instructions),
		).Title("Step 1: Details").
			Description("Tell everyone what you made")
	case w.kind == KindPublish:
		group = huh.NewGroup(
			huh.NewText().
				Title("Materials").
				Description("One per line as name:quantity:unit, e.g. Merino wool:3:skeins").
				Value(&w.materials).
				Validate(func(s string) error {
					_, err := studio.ParseMaterials(s)
					return err
				}),
		).Title("Step 2: Materials").
			Description("Images are added next")
	case w.step == 1:
		options := make([]huh.Option[string], len(w.projects))
		for i, p := range w.projects {
			options[i] = huh.NewOption(fmt.Sprintf("%s (%d%%)", p.Title, p.CompletionPercentage), p.Title)
		}
		group = huh.NewGroup(
			huh.NewSelect[string]().
				Title("Project").
				Options(options...).
				Value(&w.project),
		).Title("Step 1: Project").
			Description("Which project did you work on?")
	default:
		group = huh.NewGroup(
			huh.NewInput().
				Title("Completion (%)").
				CharLimit(3).
				Value(&w.completion).
				Validate(intBetween(0, 100)),
			huh.NewInput().
				Title("Total time spent (minutes)").
				CharLimit(7).
				Value(&w.minutes).
				Validate(intBetween(0, 1<<31-1)),
		).Title("Step 2: Progress").
			Description("Images are added next")
	}
	return huh.NewForm(group).WithTheme(createTheme())
}

func (w *Wizard) selected() client.Project {
	for _, p := range w.projects {
		if p.Title == w.project {
			return p
		}
	}
	return client.Project{}
}

// Init implements tea.Model
func (w *Wizard) Init() tea.Cmd {
	return w.form.Init()
}

// Update implements tea.Model
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
	case tea.KeyMsg:
		if msg.String() == "esc" {
			return w, func() tea.Msg { return WizardCancelledMsg{} }
		}
	}

	form, cmd := w.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.form = f
	}
	if w.form.State == huh.StateCompleted {
		return w.advanceStep()
	}
	return w, cmd
}

func (w *Wizard) advanceStep() (tea.Model, tea.Cmd) {
	if w.step < len(stepNames[w.kind]) {
		if w.kind == KindTrack {
			current := w.selected()
			w.completion = strconv.Itoa(current.CompletionPercentage)
			w.minutes = strconv.Itoa(current.TimeSpentMinutes)
		}
		w.step++
		w.form = w.createForm()
		return w, w.form.Init()
	}
	msg := w.result()
	return w, func() tea.Msg { return msg }
}

func (w *Wizard) result() WizardCompleteMsg {
	if w.kind == KindTrack {
		completion, _ := strconv.Atoi(strings.TrimSpace(w.completion))
		minutes, _ := strconv.Atoi(strings.TrimSpace(w.minutes))
		return WizardCompleteMsg{Progress: &studio.Progress{
			Title:                w.project,
			CompletionPercentage: completion,
			TimeSpentMinutes:     minutes,
		}}
	}
	materials, _ := studio.ParseMaterials(w.materials)
	return WizardCompleteMsg{Draft: &studio.Draft{
		Title:        w.title,
		Description:  w.description,
		Instructions: w.instructions,
		Materials:    materials,
	}}
}

// Selected returns the project chosen in a track wizard.
func (w *Wizard) Selected() client.Project {
	return w.selected()
}

// SetWidth sets the wizard width for proper rendering
func (w *Wizard) SetWidth(width int) {
	w.width = width
}

// View implements tea.Model
func (w *Wizard) View() string {
	return w.renderProgress() + "\n\n" + w.form.View()
}

// renderProgress renders the step indicator panel.
func (w *Wizard) renderProgress() string {
	width := max(w.width-1, 60)
	names := stepNames[w.kind]

	var steps []string
	for i, name := range names {
		n := i + 1
		var indicator string
		nameStyle := lipgloss.NewStyle().Foreground(styles.Muted)
		switch {
		case n < w.step:
			indicator = lipgloss.NewStyle().Foreground(styles.Secondary).Render(icons.CheckOK.String())
		case n == w.step:
			indicator = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render("●")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
		default:
			indicator = lipgloss.NewStyle().Foreground(styles.Muted).Render("○")
		}
		steps = append(steps, fmt.Sprintf("%s %s", indicator, nameStyle.Render(name)))
	}
	stepsLine := strings.Join(steps, "    ")

	barWidth := width - 5
	filled := (w.step * barWidth) / len(names)
	bar := lipgloss.NewStyle().Foreground(styles.Primary).Render(strings.Repeat("━", filled)) +
		lipgloss.NewStyle().Foreground(styles.Muted).Render(strings.Repeat("─", barWidth-filled))

	title := "Publish"
	if w.kind == KindTrack {
		title = "Track progress"
	}
	top := "┌─ " + lipgloss.NewStyle().Foreground(styles.Primary).Render(title) + " " +
		strings.Repeat("─", max(0, width-5-lipgloss.Width(title))) + "┐"
	middle := "│ " + stepsLine + strings.Repeat(" ", max(0, width-4-lipgloss.Width(stepsLine))) + " │"

	return lipgloss.NewStyle().Foreground(styles.Muted).Render(strings.Join([]string{
		top,
		middle,
		"│  " + bar + " │",
		"└" + strings.Repeat("─", width-2) + "┘",
	}, "\n"))
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func intBetween(lo, hi int) func(string) error {
	return func(s string) error {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || v < lo || v > hi {
			return fmt.Errorf("must be a number between %d and %d", lo, hi)
		}
		return nil
	}
}
