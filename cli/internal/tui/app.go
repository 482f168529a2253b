// ABOUTME: Root bubbletea model for the studio TUI
// ABOUTME: Routes input between screens and re-renders as the query cache and connection change

package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/caffeinepub/crocheting-app/cli/internal/client"
	"github.com/caffeinepub/crocheting-app/cli/internal/connection"
	"github.com/caffeinepub/crocheting-app/cli/internal/querycache"
	"github.com/caffeinepub/crocheting-app/cli/internal/studio"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/dashboard"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/filepicker"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/gallery"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/menu"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/recentfiles"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/styles"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/tutorials"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/wizard"
	"github.com/caffeinepub/crocheting-app/cli/internal/upload"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenMenu Screen = iota
	ScreenPage
	ScreenWizard
	ScreenImages
	ScreenSubmitting
)

// Layout constants
const (
	minTerminalWidth = 80 // Minimum width before using single-column layout
	panelPadding     = 4  // Total horizontal padding from panel borders (2 each side)
)

// cacheEventMsg carries one query cache notification.
type cacheEventMsg struct {
	event querycache.Event
	ok    bool
}

// connChangedMsg is sent when the connection provider binds or drops a connection.
type connChangedMsg struct{}

// uploadProgressMsg is sent as staged images move through the pipeline.
type uploadProgressMsg struct {
	view upload.View
}

type loginDoneMsg struct {
	principal string
	err       error
}

type logoutDoneMsg struct {
	err error
}

type submitDoneMsg struct {
	title   string
	publish bool
	err     error
}

type deleteDoneMsg struct {
	title string
	err   error
}

// App is the root model for the TUI
type App struct {
	studio *studio.Studio
	screen Screen
	page   studio.Page
	width  int
	height int

	events      <-chan querycache.Event
	stopEvents  func()
	connChanged chan struct{}
	progress    chan upload.View

	// Query results behind each page, refreshed on every cache event.
	results map[studio.Page]querycache.Result

	// Child models
	menu    *menu.Menu
	home    *dashboard.Dashboard
	gallery *gallery.Gallery
	mine    *gallery.Gallery
	guides  *tutorials.List
	admin   *tutorials.List
	wizard  *wizard.Wizard
	picker  *filepicker.FilePicker
	spinner spinner.Model

	// The publish or track form being submitted
	pipeline *upload.Pipeline
	draft    *studio.Draft
	tracking *studio.Progress

	recent     *recentfiles.RecentFiles
	busy       string
	status     string
	err        error
	deleting   string
	lastUpdate time.Time
}

// New creates the TUI over st. Recently used images are remembered in recent.
func New(st *studio.Studio, recent *recentfiles.RecentFiles) *App {
	events, stop := st.Cache().Subscribe()
	connChanged := make(chan struct{}, 1)
	st.Connections().OnChange(func(*connection.Connection) {
		select {
		case connChanged <- struct{}{}:
		default:
		}
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	a := &App{
		studio:      st,
		screen:      ScreenMenu,
		page:        studio.PageHome,
		events:      events,
		stopEvents:  stop,
		connChanged: connChanged,
		progress:    make(chan upload.View, 64),
		results:     make(map[studio.Page]querycache.Result),
		menu:        menu.New(st.NavEntries()),
		home:        dashboard.New(dashboard.Summary{}, 0, 0),
		gallery:     gallery.New("Gallery", nil, 0),
		mine:        gallery.New("My projects", nil, 0),
		guides:      tutorials.New("Tutorials", nil, 0),
		admin:       tutorials.New("Manage tutorials", nil, 0),
		recent:      recent,
		spinner:     sp,
	}
	a.refresh()
	return a
}

// Close stops listening to the query cache.
func (a *App) Close() {
	a.stopEvents()
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.waitForEvent(), a.waitForConnection(), a.waitForProgress())
}

func (a *App) waitForEvent() tea.Cmd {
	events := a.events
	return func() tea.Msg {
		ev, ok := <-events
		return cacheEventMsg{event: ev, ok: ok}
	}
}

func (a *App) waitForConnection() tea.Cmd {
	ch := a.connChanged
	return func() tea.Msg {
		<-ch
		return connChangedMsg{}
	}
}

func (a *App) waitForProgress() tea.Cmd {
	ch := a.progress
	return func() tea.Msg {
		return uploadProgressMsg{view: <-ch}
	}
}

// observe forwards pipeline progress into the program. Updates are dropped
// when the program falls behind; the view re-reads the pipeline anyway.
func (a *App) observe(v upload.View) {
	select {
	case a.progress <- v:
	default:
	}
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		if a.picker != nil {
			a.picker.Update(msg)
		}
		if a.wizard != nil {
			return a.updateWizard(msg)
		}
		return a, nil

	case tea.KeyMsg:
		// Handle global quit
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		a.status, a.err = "", nil

		// Route to current screen
		switch a.screen {
		case ScreenMenu:
			return a.updateMenu(msg)
		case ScreenPage:
			return a.updatePage(msg)
		case ScreenWizard:
			return a.updateWizard(msg)
		case ScreenImages:
			return a.updateImages(msg)
		}
		return a, nil

	case spinner.TickMsg:
		if a.busy == "" {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case cacheEventMsg:
		if !msg.ok {
			return a, nil
		}
		if msg.event.Kind == querycache.EventUpdated {
			a.lastUpdate = time.Now()
		}
		a.refresh()
		return a, a.waitForEvent()

	case connChangedMsg:
		a.refresh()
		return a, a.waitForConnection()

	case uploadProgressMsg:
		return a, a.waitForProgress()

	case menu.PageSelectedMsg:
		return a.openPage(msg.Page)

	case menu.CancelledMsg:
		return a, tea.Quit

	case wizard.WizardCompleteMsg:
		return a.handleWizardComplete(msg)

	case wizard.WizardCancelledMsg:
		a.wizard = nil
		a.screen = ScreenPage
		return a, nil

	case filepicker.FileSelectedMsg:
		return a.handleFileSelected(msg)

	case filepicker.DoneMsg:
		return a.startSubmit()

	case filepicker.CancelledMsg:
		a.discardForm()
		a.screen = ScreenPage
		return a, nil

	case submitDoneMsg:
		return a.handleSubmitDone(msg)

	case loginDoneMsg:
		a.busy = ""
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.status = "Logged in as " + msg.principal
		return a, nil

	case logoutDoneMsg:
		a.busy = ""
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.status = "Logged out"
		return a, nil

	case deleteDoneMsg:
		a.busy = ""
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.status = fmt.Sprintf("Deleted %q", msg.title)
		return a, nil
	}

	return a, nil
}

func (a *App) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "l":
		return a, a.login()
	case "o":
		return a, a.logout()
	}
	_, cmd := a.menu.Update(msg)
	return a, cmd
}

func (a *App) updatePage(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key != "d" {
		a.deleting = ""
	}
	switch key {
	case "q":
		return a, tea.Quit
	case "b", "esc":
		a.screen = ScreenMenu
	case "up", "k":
		a.move(-1)
	case "down", "j":
		a.move(1)
	case "r":
		if q, ok := a.pageQuery(a.page); ok {
			a.studio.Cache().Invalidate(q.Key)
		}
	case "p":
		return a.startPublish()
	case "t":
		return a.startTrack()
	case "l":
		return a, a.login()
	case "o":
		return a, a.logout()
	case "d":
		if a.page == studio.PageAdmin {
			return a, a.deleteSelected()
		}
	}
	return a, nil
}

func (a *App) updateWizard(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.wizard == nil {
		return a, nil
	}
	_, cmd := a.wizard.Update(msg)
	return a, cmd
}

func (a *App) updateImages(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+x" && a.pipeline != nil && a.pipeline.Len() > 0 {
		if err := a.pipeline.Remove(a.pipeline.Len() - 1); err != nil {
			a.picker.SetError(err.Error())
		}
		a.picker.SetStaged(a.pipeline.Len())
		return a, nil
	}
	_, cmd := a.picker.Update(msg)
	return a, cmd
}

func (a *App) move(delta int) {
	switch a.page {
	case studio.PageGallery:
		a.gallery.Move(delta)
	case studio.PageMyProjects:
		a.mine.Move(delta)
	case studio.PageTutorials:
		a.guides.Move(delta)
	case studio.PageAdmin:
		a.admin.Move(delta)
	}
}

// openPage shows page, starting a form for the publish and track entries.
func (a *App) openPage(page studio.Page) (tea.Model, tea.Cmd) {
	switch page {
	case studio.PagePublish:
		return a.startPublish()
	case studio.PageTrack:
		return a.startTrack()
	}
	a.page = page
	a.screen = ScreenPage
	return a, nil
}

// pageQuery returns the query listed on page.
func (a *App) pageQuery(page studio.Page) (querycache.Query, bool) {
	switch page {
	case studio.PageHome:
		return a.studio.CallerProfileQuery(), true
	case studio.PageGallery:
		return a.studio.AllProjectsQuery(), true
	case studio.PageMyProjects:
		return a.studio.MyProjectsQuery(), true
	case studio.PageTutorials, studio.PageAdmin:
		return a.studio.TutorialsQuery(), true
	}
	return querycache.Query{}, false
}

// refresh re-reads every query the screens show. Reads start fetches for
// missing or stale entries; the resulting cache events land back here.
func (a *App) refresh() {
	st := a.studio
	entries := st.NavEntries()
	a.menu.SetEntries(entries)
	if !slices.Contains(entries, a.page) {
		a.page = studio.PageHome
	}

	id := st.Identity()
	if id == nil && (a.screen == ScreenWizard || a.screen == ScreenImages) {
		a.discardForm()
		a.screen = ScreenMenu
	}

	summary := dashboard.Summary{Role: st.LoadRole()}
	if id != nil {
		summary.Principal = id.Principal
		profile := st.Load(st.CallerProfileQuery())
		a.results[studio.PageHome] = profile
		if p, ok := querycache.Value[*client.Profile](profile); ok {
			summary.Profile = p
		}
		summary.NeedsProfile = profile.Status == querycache.StatusSuccess && summary.Profile == nil
	} else {
		delete(a.results, studio.PageHome)
	}

	all := st.Load(st.AllProjectsQuery())
	a.results[studio.PageGallery] = all
	if projects, ok := querycache.Value[[]client.Project](all); ok {
		a.gallery.SetProjects(projects)
		summary.Gallery = dashboard.Count{N: len(projects), Known: true}
	} else {
		a.gallery.SetProjects(nil)
	}

	mine := st.Load(st.MyProjectsQuery())
	a.results[studio.PageMyProjects] = mine
	if projects, ok := querycache.Value[[]client.Project](mine); ok {
		a.mine.SetProjects(projects)
		summary.Mine = dashboard.Count{N: len(projects), Known: true}
	} else {
		a.mine.SetProjects(nil)
	}

	guides := st.Load(st.TutorialsQuery())
	a.results[studio.PageTutorials] = guides
	a.results[studio.PageAdmin] = guides
	if list, ok := querycache.Value[[]client.Tutorial](guides); ok {
		a.guides.SetTutorials(list)
		a.admin.SetTutorials(list)
		summary.Tutorials = dashboard.Count{N: len(list), Known: true}
	} else {
		a.guides.SetTutorials(nil)
		a.admin.SetTutorials(nil)
	}

	a.home.Update(summary)
}

// resize propagates the terminal size to the page components.
func (a *App) resize() {
	inner := a.pageWidth() - panelPadding
	a.home.SetSize(inner, a.contentHeight())
	a.gallery.SetWidth(inner)
	a.mine.SetWidth(inner)
	a.guides.SetWidth(inner)
	a.admin.SetWidth(inner)
	if a.wizard != nil {
		a.wizard.SetWidth(a.width)
	}
}

func (a *App) startPublish() (tea.Model, tea.Cmd) {
	if a.studio.Identity() == nil {
		a.err = errors.New("log in to publish a project")
		return a, nil
	}
	a.wizard = wizard.NewPublish()
	a.wizard.SetWidth(a.width)
	a.screen = ScreenWizard
	return a, a.wizard.Init()
}

func (a *App) startTrack() (tea.Model, tea.Cmd) {
	if a.studio.Identity() == nil {
		a.err = errors.New("log in to track progress")
		return a, nil
	}
	projects, ok := querycache.Value[[]client.Project](a.studio.Load(a.studio.MyProjectsQuery()))
	if !ok {
		a.status = "Your projects are still loading"
		return a, nil
	}
	w, err := wizard.NewTrack(projects)
	if err != nil {
		a.err = err
		return a, nil
	}
	a.wizard = w
	a.wizard.SetWidth(a.width)
	a.screen = ScreenWizard
	return a, a.wizard.Init()
}

// handleWizardComplete moves a finished form on to picking its images.
func (a *App) handleWizardComplete(msg wizard.WizardCompleteMsg) (tea.Model, tea.Cmd) {
	w := a.wizard
	a.wizard = nil
	a.draft, a.tracking = msg.Draft, msg.Progress
	a.pipeline = a.studio.NewPipeline(upload.WithObserver(a.observe))

	if msg.Progress != nil && w != nil {
		if err := a.pipeline.Preload(w.Selected().Images); err != nil {
			a.err = err
		}
	}

	a.picker = filepicker.New(a.recent.List(), a.pipeline.Limit())
	a.picker.SetStaged(a.pipeline.Len())
	a.screen = ScreenImages
	return a, a.picker.Init()
}

func (a *App) handleFileSelected(msg filepicker.FileSelectedMsg) (tea.Model, tea.Cmd) {
	if a.pipeline == nil {
		return a, nil
	}
	warnings, err := a.pipeline.Stage([]upload.File{{Name: filepath.Base(msg.Path), Data: msg.Data}})
	switch {
	case err != nil:
		a.picker.SetError(err.Error())
	case len(warnings) > 0:
		a.picker.SetError(warnings[0].String())
	default:
		if err := a.recent.Add(msg.Path); err != nil {
			a.picker.SetError(err.Error())
		}
	}
	a.picker.SetStaged(a.pipeline.Len())
	return a, nil
}

func (a *App) startSubmit() (tea.Model, tea.Cmd) {
	if a.pipeline == nil {
		return a, nil
	}
	st, pipe := a.studio, a.pipeline
	draft, tracking := a.draft, a.tracking

	a.screen = ScreenSubmitting
	a.busy = "Uploading images"
	submit := func() tea.Msg {
		ctx := context.Background()
		if draft != nil {
			return submitDoneMsg{title: draft.Title, publish: true, err: st.Publish(ctx, *draft, pipe)}
		}
		return submitDoneMsg{title: tracking.Title, err: st.Track(ctx, *tracking, pipe)}
	}
	return a, tea.Batch(submit, a.spinner.Tick)
}

// handleSubmitDone returns to the picker on failure so the form can be
// retried. Uploaded images are kept; only failed ones are sent again.
func (a *App) handleSubmitDone(msg submitDoneMsg) (tea.Model, tea.Cmd) {
	a.busy = ""
	if msg.err != nil {
		if a.picker == nil {
			a.err = msg.err
			a.screen = ScreenPage
			return a, nil
		}
		var ve *studio.ValidationError
		var se *upload.SubmitError
		switch {
		case errors.As(msg.err, &ve):
			a.picker.SetError(ve.Message)
		case errors.As(msg.err, &se):
			a.picker.SetError(fmt.Sprintf("%d image(s) failed to upload; choose Done to retry", len(se.Failed)))
		default:
			a.picker.SetError(msg.err.Error())
		}
		a.screen = ScreenImages
		return a, nil
	}

	a.discardForm()
	if msg.publish {
		a.status = fmt.Sprintf("Published %q", msg.title)
	} else {
		a.status = fmt.Sprintf("Updated %q", msg.title)
	}
	a.page = studio.PageMyProjects
	a.screen = ScreenPage
	return a, nil
}

// discardForm drops the current publish or track form and its images.
func (a *App) discardForm() {
	if a.pipeline != nil {
		a.pipeline.Reset()
	}
	a.pipeline = nil
	a.picker = nil
	a.wizard = nil
	a.draft, a.tracking = nil, nil
}

func (a *App) login() tea.Cmd {
	session := a.studio.Session()
	if session.Identity() != nil {
		a.status = "Already logged in"
		return nil
	}
	a.busy = "Logging in"
	login := func() tea.Msg {
		id, err := session.LoginWithRecovery(context.Background())
		if err != nil {
			return loginDoneMsg{err: err}
		}
		return loginDoneMsg{principal: id.Principal}
	}
	return tea.Batch(login, a.spinner.Tick)
}

func (a *App) logout() tea.Cmd {
	session := a.studio.Session()
	if session.Identity() == nil {
		return nil
	}
	a.busy = "Logging out"
	logout := func() tea.Msg {
		return logoutDoneMsg{err: session.Logout(context.Background())}
	}
	return tea.Batch(logout, a.spinner.Tick)
}

// deleteSelected asks for a second press before deleting the highlighted tutorial.
func (a *App) deleteSelected() tea.Cmd {
	t, ok := a.admin.Selected()
	if !ok {
		return nil
	}
	if a.deleting != t.Title {
		a.deleting = t.Title
		a.status = fmt.Sprintf("Press d again to delete %q", t.Title)
		return nil
	}
	a.deleting = ""
	a.busy = "Deleting"
	st, title := a.studio, t.Title
	del := func() tea.Msg {
		return deleteDoneMsg{title: title, err: st.DeleteTutorial(context.Background(), title)}
	}
	return tea.Batch(del, a.spinner.Tick)
}

// Run starts the TUI
func Run(st *studio.Studio, recent *recentfiles.RecentFiles) error {
	app := New(st, recent)
	defer app.Close()

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
