// ABOUTME: Tests for the navigation menu
// ABOUTME: Validates cursor movement, selection and entry replacement

package menu

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/caffeinepub/crocheting-app/cli/internal/studio"
)

var member = []studio.Page{studio.PageHome, studio.PageGallery, studio.PageTutorials}

func press(m *Menu, key string) tea.Msg {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	_, cmd := m.Update(msg)
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestMenu_SelectWithEnter(t *testing.T) {
	m := New(member)
	press(m, "j")
	press(m, "j")
	press(m, "j") // past the end stays on the last entry

	got, ok := press(m, "enter").(PageSelectedMsg)
	if !ok || got.Page != studio.PageTutorials {
		t.Errorf("expected Tutorials selected, got %#v", got)
	}
}

func TestMenu_NumberJumps(t *testing.T) {
	m := New(member)
	got, ok := press(m, "2").(PageSelectedMsg)
	if !ok || got.Page != studio.PageGallery {
		t.Errorf("expected Gallery selected, got %#v", got)
	}
	if msg := press(m, "9"); msg != nil {
		t.Errorf("expected out-of-range number ignored, got %#v", msg)
	}
}

func TestMenu_Cancel(t *testing.T) {
	m := New(member)
	if _, ok := press(m, "esc").(CancelledMsg); !ok {
		t.Error("expected CancelledMsg on esc")
	}
}

func TestMenu_SetEntriesKeepsCursor(t *testing.T) {
	admin := append(append([]studio.Page{}, member...), studio.PageAdmin)
	m := New(admin)
	press(m, "k")
	for range 3 {
		press(m, "j")
	}
	if p, _ := m.Selected(); p != studio.PageAdmin {
		t.Fatalf("expected cursor on Admin, got %v", p)
	}

	m.SetEntries(member)
	if p, _ := m.Selected(); p != studio.PageHome {
		t.Errorf("expected cursor reset when the page disappears, got %v", p)
	}

	press(m, "j")
	m.SetEntries(admin)
	if p, _ := m.Selected(); p != studio.PageGallery {
		t.Errorf("expected cursor kept on Gallery, got %v", p)
	}
}

func TestMenu_View(t *testing.T) {
	out := New(member).View()
	if !strings.Contains(out, "1 ") || !strings.Contains(out, "Tutorials") {
		t.Errorf("unexpected view:\n%s", out)
	}
	if strings.Contains(out, "Admin") {
		t.Error("expected no admin entry for members")
	}
}
