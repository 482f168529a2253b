// ABOUTME: Project commands for the crochet CLI
// ABOUTME: Lists the gallery, publishes new projects and tracks progress

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/caffeinepub/crocheting-app/cli/internal/client"
	"github.com/caffeinepub/crocheting-app/cli/internal/studio"
	"github.com/caffeinepub/crocheting-app/cli/internal/upload"
)

var (
	listCreator string

	publishDraft     studio.Draft
	publishImages    []string
	publishMaterials []string

	trackProgress   studio.Progress
	trackImages     []string
	trackKeepImages bool
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project"},
	Short:   "Browse, publish and track projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the project gallery",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runProjectsList(ctx, os.Stdout, listCreator, false)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var projectsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your own projects",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runProjectsList(ctx, os.Stdout, "", true)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var projectsPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a new project",
	Long: `Publish a new project with up to five images.

Materials are given as name:quantity:unit, for example
  --material "Merino wool:3:skeins"`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runPublish(ctx, os.Stdout, publishDraft, publishMaterials, publishImages)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var projectsTrackCmd = &cobra.Command{
	Use:   "track",
	Short: "Record progress on one of your projects",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runTrack(ctx, os.Stdout, trackProgress, trackImages, trackKeepImages)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	projectsListCmd.Flags().StringVar(&listCreator, "creator", "", "Only show projects by this principal")

	f := projectsPublishCmd.Flags()
	f.StringVar(&publishDraft.Title, "title", "", "Project title")
	f.StringVar(&publishDraft.Description, "description", "", "Project description")
	f.StringVar(&publishDraft.Instructions, "instructions", "", "Pattern or instructions")
	f.StringArrayVar(&publishMaterials, "material", nil, "Material as name:quantity:unit (repeatable)")
	f.StringArrayVar(&publishImages, "image", nil, "Image file (repeatable, at least one)")

	f = projectsTrackCmd.Flags()
	f.StringVar(&trackProgress.Title, "title", "", "Title of the project to update")
	f.IntVar(&trackProgress.CompletionPercentage, "completion", 0, "Completion percentage (0-100)")
	f.IntVar(&trackProgress.TimeSpentMinutes, "minutes", 0, "Total minutes spent")
	f.StringArrayVar(&trackImages, "image", nil, "New progress image (repeatable)")
	f.BoolVar(&trackKeepImages, "keep-images", true, "Keep the project's current images")

	projectsCmd.AddCommand(projectsListCmd, projectsMineCmd, projectsPublishCmd, projectsTrackCmd)
	rootCmd.AddCommand(projectsCmd)
}

// runProjectsList prints a project listing and returns exit code
func runProjectsList(ctx context.Context, w io.Writer, creator string, mine bool) int {
	env, err := newEnvironment(ctx, nil)
	if err != nil {
		return report(w, err)
	}
	defer env.close()

	if err := env.resume(ctx); err != nil {
		return report(w, err)
	}

	var projects []client.Project
	switch {
	case mine:
		projects, err = env.studio.MyProjects(ctx)
	case creator != "":
		projects, err = env.studio.UserProjects(ctx, creator)
	default:
		projects, err = env.studio.AllProjects(ctx)
	}
	if err != nil {
		return report(w, err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatProjectsJSON(projects))
	} else {
		fmt.Fprintln(w, formatProjectsHuman(projects))
	}
	return 0
}

// runPublish uploads the images and publishes the project
func runPublish(ctx context.Context, w io.Writer, draft studio.Draft, materials, images []string) int {
	env, err := newEnvironment(ctx, nil)
	if err != nil {
		return report(w, err)
	}
	defer env.close()

	if err := env.resume(ctx); err != nil {
		return report(w, err)
	}
	for _, m := range materials {
		parsed, err := studio.ParseMaterial(m)
		if err != nil {
			return report(w, err)
		}
		draft.Materials = append(draft.Materials, parsed)
	}

	pipeline, code := stageImages(env, w, images)
	if pipeline == nil {
		return code
	}
	if err := env.studio.Publish(ctx, draft, pipeline); err != nil {
		return reportSubmit(w, err)
	}
	fmt.Fprintf(w, "Published %q.\n", strings.TrimSpace(draft.Title))
	return 0
}

// runTrack records progress on one of the caller's projects
func runTrack(ctx context.Context, w io.Writer, progress studio.Progress, images []string, keep bool) int {
	env, err := newEnvironment(ctx, nil)
	if err != nil {
		return report(w, err)
	}
	defer env.close()

	if err := env.resume(ctx); err != nil {
		return report(w, err)
	}

	pipeline := env.studio.NewPipeline(upload.WithObserver(progressPrinter(w)))
	if keep {
		mine, err := env.studio.MyProjects(ctx)
		if err != nil {
			return report(w, err)
		}
		for _, p := range mine {
			if p.Title == strings.TrimSpace(progress.Title) {
				if err := pipeline.Preload(p.Images); err != nil {
					return report(w, err)
				}
				break
			}
		}
	}
	if code := stageInto(pipeline, w, images); code != 0 {
		return code
	}
	if err := env.studio.Track(ctx, progress, pipeline); err != nil {
		return reportSubmit(w, err)
	}
	fmt.Fprintf(w, "Updated %q: %d%% complete, %s spent.\n",
		strings.TrimSpace(progress.Title), progress.CompletionPercentage, formatMinutes(progress.TimeSpentMinutes))
	return 0
}

func stageImages(env *environment, w io.Writer, paths []string) (*upload.Pipeline, int) {
	pipeline := env.studio.NewPipeline(upload.WithObserver(progressPrinter(w)))
	if code := stageInto(pipeline, w, paths); code != 0 {
		return nil, code
	}
	return pipeline, 0
}

func stageInto(pipeline *upload.Pipeline, w io.Writer, paths []string) int {
	files, err := readImages(paths)
	if err != nil {
		return report(w, err)
	}
	warnings, err := pipeline.Stage(files)
	for _, warn := range warnings {
		fmt.Fprintf(w, "Skipped %s\n", warn)
	}
	if err != nil {
		return report(w, err)
	}
	return 0
}

func reportSubmit(w io.Writer, err error) int {
	var se *upload.SubmitError
	if errors.As(err, &se) {
		fmt.Fprintf(w, "Not published: %d image(s) failed to upload (%s)\n", len(se.Failed), strings.Join(se.Failed, ", "))
		return 2
	}
	return report(w, err)
}

// progressPrinter reports each item once it settles.
func progressPrinter(w io.Writer) func(upload.View) {
	var mu sync.Mutex
	return func(v upload.View) {
		mu.Lock()
		defer mu.Unlock()
		switch v.State {
		case upload.StateDone:
			fmt.Fprintf(w, "  ✓ %s (%s)\n", v.Name, humanize.Bytes(uint64(v.Size)))
		case upload.StateFailed:
			fmt.Fprintf(w, "  ✗ %s: %v\n", v.Name, v.Err)
		}
	}
}

func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}

// formatProjectsHuman formats projects for human readability
func formatProjectsHuman(projects []client.Project) string {
	if len(projects) == 0 {
		return "No projects yet."
	}
	var sb strings.Builder
	for i, p := range projects {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s\n", p.Title)
		fmt.Fprintf(&sb, "  by %s\n", p.Creator)
		if p.Description != "" {
			fmt.Fprintf(&sb, "  %s\n", p.Description)
		}
		fmt.Fprintf(&sb, "  Progress: %d%%, %s spent, %d image(s)\n",
			p.CompletionPercentage, formatMinutes(p.TimeSpentMinutes), len(p.Images))
		for _, m := range p.Materials {
			fmt.Fprintf(&sb, "  - %s: %s %s\n", m.Name, humanize.Ftoa(m.Quantity), m.Unit)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatProjectsJSON formats projects as JSON
func formatProjectsJSON(projects []client.Project) string {
	if projects == nil {
		projects = []client.Project{}
	}
	data, _ := json.MarshalIndent(map[string]any{"projects": projects}, "", "  ")
	return string(data)
}
