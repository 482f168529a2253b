// ABOUTME: Tutorial commands for the crochet CLI
// ABOUTME: Anyone can read tutorials; admins create, update and delete them

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/caffeinepub/crocheting-app/cli/internal/client"
)

var (
	tutorialInput client.Tutorial
	deleteYes     bool
)

var tutorialsCmd = &cobra.Command{
	Use:     "tutorials",
	Aliases: []string{"tutorial"},
	Short:   "Read and manage tutorials",
}

var tutorialsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tutorials",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runTutorialsList(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var tutorialsShowCmd = &cobra.Command{
	Use:   "show <title>",
	Short: "Show one tutorial",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runTutorialShow(ctx, os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var tutorialsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a tutorial (admin only)",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runTutorialSave(ctx, os.Stdout, tutorialInput, false)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var tutorialsUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Replace a tutorial (admin only)",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runTutorialSave(ctx, os.Stdout, tutorialInput, true)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var tutorialsDeleteCmd = &cobra.Command{
	Use:   "delete <title>",
	Short: "Delete a tutorial (admin only)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runTutorialDelete(ctx, os.Stdout, args[0], confirmDelete)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	for _, c := range []*cobra.Command{tutorialsCreateCmd, tutorialsUpdateCmd} {
		f := c.Flags()
		f.StringVar(&tutorialInput.Title, "title", "", "Tutorial title")
		f.StringVar(&tutorialInput.Description, "description", "", "Short description")
		f.StringVar(&tutorialInput.Difficulty, "difficulty", client.DifficultyBeginner, "Beginner, Intermediate or Advanced")
		f.StringArrayVar(&tutorialInput.Steps, "step", nil, "Step text (repeatable, in order)")
		f.StringArrayVar(&tutorialInput.Materials, "material", nil, "Required material (repeatable)")
	}
	tutorialsDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")

	tutorialsCmd.AddCommand(tutorialsListCmd, tutorialsShowCmd, tutorialsCreateCmd, tutorialsUpdateCmd, tutorialsDeleteCmd)
	rootCmd.AddCommand(tutorialsCmd)
}

func confirmDelete(ctx context.Context, title string) (bool, error) {
	if deleteYes {
		return true, nil
	}
	ok := false
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", title)).
				Affirmative("Delete").
				Negative("Keep").
				Value(&ok),
		),
	).WithTheme(huh.ThemeBase()).RunWithContext(ctx)
	return ok, err
}

// runTutorialsList prints all tutorials and returns exit code
func runTutorialsList(ctx context.Context, w io.Writer) int {
	env, err := newEnvironment(ctx, nil)
	if err != nil {
		return report(w, err)
	}
	defer env.close()

	if err := env.resume(ctx); err != nil {
		return report(w, err)
	}
	tutorials, err := env.studio.Tutorials(ctx)
	if err != nil {
		return report(w, err)
	}

	if IsJSONOutput() {
		if tutorials == nil {
			tutorials = []client.Tutorial{}
		}
		data, _ := json.MarshalIndent(map[string]any{"tutorials": tutorials}, "", "  ")
		fmt.Fprintln(w, string(data))
	} else {
		fmt.Fprintln(w, formatTutorialsHuman(tutorials))
	}
	return 0
}

// runTutorialShow prints one tutorial; a missing title exits 1
func runTutorialShow(ctx context.Context, w io.Writer, title string) int {
	env, err := newEnvironment(ctx, nil)
	if err != nil {
		return report(w, err)
	}
	defer env.close()

	if err := env.resume(ctx); err != nil {
		return report(w, err)
	}
	tutorial, err := env.studio.Tutorial(ctx, title)
	if err != nil {
		return report(w, err)
	}
	if tutorial == nil {
		fmt.Fprintf(w, "No tutorial titled %q.\n", title)
		return 1
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(tutorial, "", "  ")
		fmt.Fprintln(w, string(data))
	} else {
		fmt.Fprintln(w, formatTutorialHuman(tutorial))
	}
	return 0
}

// runTutorialSave creates or replaces a tutorial
func runTutorialSave(ctx context.Context, w io.Writer, t client.Tutorial, replace bool) int {
	env, err := newEnvironment(ctx, nil)
	if err != nil {
		return report(w, err)
	}
	defer env.close()

	if err := env.resume(ctx); err != nil {
		return report(w, err)
	}
	if replace {
		err = env.studio.UpdateTutorial(ctx, t)
	} else {
		err = env.studio.CreateTutorial(ctx, t)
	}
	if err != nil {
		return report(w, err)
	}
	fmt.Fprintf(w, "Saved %q.\n", strings.TrimSpace(t.Title))
	return 0
}

// runTutorialDelete asks before deleting a tutorial
func runTutorialDelete(ctx context.Context, w io.Writer, title string, confirm func(context.Context, string) (bool, error)) int {
	env, err := newEnvironment(ctx, nil)
	if err != nil {
		return report(w, err)
	}
	defer env.close()

	if err := env.resume(ctx); err != nil {
		return report(w, err)
	}
	ok, err := confirm(ctx, title)
	if err != nil {
		return report(w, err)
	}
	if !ok {
		fmt.Fprintln(w, "Nothing deleted.")
		return 1
	}
	if err := env.studio.DeleteTutorial(ctx, title); err != nil {
		return report(w, err)
	}
	fmt.Fprintf(w, "Deleted %q.\n", title)
	return 0
}

// formatTutorialsHuman formats the tutorial index
func formatTutorialsHuman(tutorials []client.Tutorial) string {
	if len(tutorials) == 0 {
		return "No tutorials yet."
	}
	var sb strings.Builder
	for _, t := range tutorials {
		fmt.Fprintf(&sb, "%-40s %-12s %d step(s)\n", t.Title, t.Difficulty, len(t.Steps))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatTutorialHuman formats a single tutorial with numbered steps
func formatTutorialHuman(t *client.Tutorial) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", t.Title, t.Difficulty)
	if t.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", t.Description)
	}
	if len(t.Materials) > 0 {
		sb.WriteString("\nMaterials:\n")
		for _, m := range t.Materials {
			fmt.Fprintf(&sb, "  - %s\n", m)
		}
	}
	sb.WriteString("\nSteps:\n")
	for i, s := range t.Steps {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, s)
	}
	return strings.TrimRight(sb.String(), "\n")
}
