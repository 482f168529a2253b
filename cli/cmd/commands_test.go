// ABOUTME: Tests for the profile, project and tutorial commands
// ABOUTME: Covers output formatting, exit codes and the logged-out path

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/caffeinepub/crocheting-app/cli/internal/client"
	"github.com/caffeinepub/crocheting-app/cli/internal/identity"
	"github.com/caffeinepub/crocheting-app/cli/internal/role"
	"github.com/caffeinepub/crocheting-app/cli/internal/studio"
)

func TestFormatMinutes(t *testing.T) {
	tests := map[int]string{0: "0m", 45: "45m", 60: "1h00m", 135: "2h15m"}
	for in, want := range tests {
		if got := formatMinutes(in); got != want {
			t.Errorf("formatMinutes(%d): expected %q, got %q", in, want, got)
		}
	}
}

func TestFormatProjectsHuman(t *testing.T) {
	if got := formatProjectsHuman(nil); got != "No projects yet." {
		t.Errorf("expected empty message, got %q", got)
	}

	output := formatProjectsHuman([]client.Project{{
		Title:                "Granny square blanket",
		Creator:              "abcde-fgh",
		CompletionPercentage: 40,
		TimeSpentMinutes:     90,
		Materials:            []client.Material{{Name: "Acrylic", Quantity: 12, Unit: "skeins"}},
	}})

	for _, want := range []string{"Granny square blanket", "by abcde-fgh", "Progress: 40%, 1h30m spent", "- Acrylic: 12 skeins"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestFormatProjectsJSON_EmptyList(t *testing.T) {
	var parsed map[string][]any
	if err := json.Unmarshal([]byte(formatProjectsJSON(nil)), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed["projects"] == nil {
		t.Error("expected an empty list, not null")
	}
}

func TestFormatTutorialHuman(t *testing.T) {
	output := formatTutorialHuman(&client.Tutorial{
		Title:      "Magic ring",
		Difficulty: client.DifficultyBeginner,
		Steps:      []string{"Wrap yarn", "Pull tight"},
		Materials:  []string{"Hook"},
	})

	for _, want := range []string{"Magic ring (Beginner)", "  - Hook", "  1. Wrap yarn", "  2. Pull tight"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestFormatProfileHuman(t *testing.T) {
	if got := formatProfileHuman("p1", nil); got != "No profile for p1" {
		t.Errorf("unexpected output %q", got)
	}
	got := formatProfileHuman("p1", &client.Profile{Name: "Ada", Bio: "Loves amigurumi"})
	if !strings.Contains(got, "Name:       Ada") || !strings.Contains(got, "Loves amigurumi") {
		t.Errorf("unexpected output %q", got)
	}
}

func TestFormatWhoami(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	id := &identity.Identity{Principal: "abcde-fgh", ExpiresAt: now.Add(2 * time.Hour)}

	human := formatWhoamiHuman(id, role.FlagGranted, now)
	if !strings.Contains(human, "Role:       admin") || !strings.Contains(human, "from now") {
		t.Errorf("unexpected output %q", human)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(formatWhoamiJSON(id, role.FlagDenied)), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed["role"] != "member" {
		t.Errorf("expected member role, got %v", parsed["role"])
	}
}

func TestReport_ExitCodes(t *testing.T) {
	var buf bytes.Buffer
	if code := report(&buf, &studio.ValidationError{Field: "title", Message: "title is required"}); code != 1 {
		t.Errorf("expected validation errors to exit 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "Invalid input: title is required") {
		t.Errorf("unexpected output %q", buf.String())
	}
	if code := report(&buf, errNotLoggedIn); code != 2 {
		t.Errorf("expected other errors to exit 2, got %d", code)
	}
}

func TestProjectsList_RequiresLogin(t *testing.T) {
	t.Setenv("CROCHET_CONFIG_DIR", t.TempDir())

	var buf bytes.Buffer
	exitCode := runProjectsList(context.Background(), &buf, "", false)

	if exitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "crochet login") {
		t.Errorf("expected login hint, got %q", buf.String())
	}
}
