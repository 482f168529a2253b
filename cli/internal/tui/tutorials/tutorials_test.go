// ABOUTME: Tests for the tutorial list view
// ABOUTME: Validates the empty state and the expanded steps

package tutorials

import (
	"strings"
	"testing"

	"github.com/caffeinepub/crocheting-app/cli/internal/client"
)

var guides = []client.Tutorial{
	{Title: "Magic ring", Difficulty: client.DifficultyBeginner, Steps: []string{"Wrap", "Pull through"}, Materials: []string{"Hook 4mm"}},
	{Title: "Bobble stitch", Difficulty: client.DifficultyIntermediate, Steps: []string{"Yarn over"}},
}

func TestList_Empty(t *testing.T) {
	l := New("Tutorials", nil, 80)
	if !strings.Contains(l.View(), "No tutorials yet.") {
		t.Errorf("unexpected view:\n%s", l.View())
	}
	if _, ok := l.Selected(); ok {
		t.Error("expected nothing selected")
	}
}

func TestList_ExpandsSelected(t *testing.T) {
	l := New("Tutorials", guides, 80)
	view := l.View()
	for _, want := range []string{"1. Wrap", "2. Pull through", "Hook 4mm"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view:\n%s", want, view)
		}
	}

	l.Move(1)
	if got, _ := l.Selected(); got.Title != "Bobble stitch" {
		t.Errorf("expected Bobble stitch, got %q", got.Title)
	}
	if strings.Contains(l.View(), "Pull through") {
		t.Error("expected only the selected tutorial expanded")
	}
}

func TestList_SetTutorialsClampsCursor(t *testing.T) {
	l := New("Tutorials", guides, 80)
	l.Move(1)
	l.SetTutorials(guides[:1])
	if got, _ := l.Selected(); got.Title != "Magic ring" {
		t.Errorf("expected cursor clamped to Magic ring, got %q", got.Title)
	}
}
