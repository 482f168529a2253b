// ABOUTME: Image picker for attaching photos to a project
// ABOUTME: Offers recently used images and a path prompt; each pick is staged immediately

package filepicker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/caffeinepub/crocheting-app/cli/internal/tui/styles"
)

type state int

const (
	stateList state = iota
	stateInput
)

// FileSelectedMsg carries a picked file.
type FileSelectedMsg struct {
	Path string
	Data []byte
}

// DoneMsg is sent when the user has finished picking.
type DoneMsg struct{}

// CancelledMsg is sent when the user backs out.
type CancelledMsg struct{}

// FilePicker is the image selection component.
type FilePicker struct {
	recent    []string
	cursor    int
	state     state
	textInput textinput.Model
	err       string
	staged    int
	limit     int
	width     int
}

// New creates a picker listing recent image paths.
func New(recent []string, limit int) *FilePicker {
	ti := textinput.New()
	ti.Placeholder = "~/Pictures/blanket.jpg"
	ti.CharLimit = 512
	ti.Width = 60

	return &FilePicker{
		recent:    recent,
		state:     stateList,
		textInput: ti,
		limit:     limit,
	}
}

// SetStaged updates the staged count shown in the title.
func (fp *FilePicker) SetStaged(n int) {
	fp.staged = n
}

// SetError shows msg until the next key press.
func (fp *FilePicker) SetError(msg string) {
	fp.err = msg
}

// Init implements tea.Model
func (fp *FilePicker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (fp *FilePicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		fp.width = msg.Width
		return fp, nil
	case tea.KeyMsg:
		fp.err = ""
		if fp.state == stateInput {
			return fp.updateInput(msg)
		}
		return fp.updateList(msg)
	}
	return fp, nil
}

// items: recent files, then "Enter path...", then "Done".
func (fp *FilePicker) itemCount() int {
	return len(fp.recent) + 2
}

func (fp *FilePicker) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if fp.cursor > 0 {
			fp.cursor--
		}
	case "down", "j":
		if fp.cursor < fp.itemCount()-1 {
			fp.cursor++
		}
	case "enter":
		switch {
		case fp.cursor < len(fp.recent):
			return fp.loadFile(fp.recent[fp.cursor])
		case fp.cursor == len(fp.recent):
			fp.state = stateInput
			fp.textInput.Focus()
			return fp, textinput.Blink
		default:
			return fp, func() tea.Msg { return DoneMsg{} }
		}
	case "esc", "b":
		return fp, func() tea.Msg { return CancelledMsg{} }
	}
	return fp, nil
}

func (fp *FilePicker) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fp.state = stateList
		fp.textInput.SetValue("")
		return fp, nil
	case "enter":
		path := strings.TrimSpace(fp.textInput.Value())
		if path == "" {
			fp.err = "Please enter a file path"
			return fp, nil
		}
		fp.textInput.SetValue("")
		fp.state = stateList
		return fp.loadFile(path)
	}

	var cmd tea.Cmd
	fp.textInput, cmd = fp.textInput.Update(msg)
	return fp, cmd
}

func (fp *FilePicker) loadFile(path string) (tea.Model, tea.Cmd) {
	expanded := expandPath(path)
	data, err := os.ReadFile(expanded)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			fp.err = "File not found: " + path
		case errors.Is(err, fs.ErrPermission):
			fp.err = "Cannot read file: permission denied"
		default:
			fp.err = "Error reading file: " + err.Error()
		}
		return fp, nil
	}
	return fp, func() tea.Msg {
		return FileSelectedMsg{Path: expanded, Data: data}
	}
}

// expandPath expands a leading ~ and makes the path absolute.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// View implements tea.Model
func (fp *FilePicker) View() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render(fmt.Sprintf("Add images (%d of %d staged)", fp.staged, fp.limit)))
	b.WriteString("\n")

	if fp.state == stateInput {
		b.WriteString(fp.textInput.View())
	} else {
		if len(fp.recent) > 0 {
			b.WriteString(styles.Subtitle.Render("Recent images:"))
			b.WriteString("\n")
		}
		for i, label := range fp.labels() {
			if i == fp.cursor {
				b.WriteString("> " + styles.Selected.Render(label) + "\n")
			} else {
				b.WriteString("  " + styles.Normal.Render(label) + "\n")
			}
		}
	}

	if fp.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.StatusCritical.Render("Error: " + fp.err))
	}
	return b.String()
}

func (fp *FilePicker) labels() []string {
	labels := make([]string, 0, fp.itemCount())
	for _, p := range fp.recent {
		if fp.width > 20 && len(p) > fp.width-10 {
			p = "..." + p[len(p)-(fp.width-13):]
		}
		labels = append(labels, p)
	}
	return append(labels, "Enter path...", "Done")
}
