// ABOUTME: Profile commands for the crochet CLI
// ABOUTME: Shows and saves the public profile of a principal

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/caffeinepub/crocheting-app/cli/internal/client"
)

var (
	profileName string
	profileBio  string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit profiles",
}

var profileShowCmd = &cobra.Command{
	Use:   "show [principal]",
	Short: "Show your profile or another user's",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		principal := ""
		if len(args) == 1 {
			principal = args[0]
		}
		exitCode := runProfileShow(ctx, os.Stdout, principal)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var profileSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save your profile",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runProfileSave(ctx, os.Stdout, client.Profile{Name: profileName, Bio: profileBio})
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	profileSaveCmd.Flags().StringVar(&profileName, "name", "", "Display name")
	profileSaveCmd.Flags().StringVar(&profileBio, "bio", "", "Short bio")
	profileCmd.AddCommand(profileShowCmd, profileSaveCmd)
	rootCmd.AddCommand(profileCmd)
}

// runProfileShow prints a profile and returns exit code
func runProfileShow(ctx context.Context, w io.Writer, principal string) int {
	env, err := newEnvironment(ctx, nil)
	if err != nil {
		return report(w, err)
	}
	defer env.close()

	if err := env.resume(ctx); err != nil {
		return report(w, err)
	}

	var profile *client.Profile
	if principal == "" {
		principal = env.session.Identity().Principal
		profile, err = env.studio.CallerProfile(ctx)
	} else {
		profile, err = env.studio.UserProfile(ctx, principal)
	}
	if err != nil {
		return report(w, err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatProfileJSON(principal, profile))
	} else {
		fmt.Fprintln(w, formatProfileHuman(principal, profile))
	}
	return 0
}

// runProfileSave saves the caller's profile and returns exit code
func runProfileSave(ctx context.Context, w io.Writer, profile client.Profile) int {
	env, err := newEnvironment(ctx, nil)
	if err != nil {
		return report(w, err)
	}
	defer env.close()

	if err := env.resume(ctx); err != nil {
		return report(w, err)
	}
	if err := env.studio.SaveProfile(ctx, profile); err != nil {
		return report(w, err)
	}
	fmt.Fprintln(w, "Profile saved.")
	return 0
}

// formatProfileHuman formats a profile for human readability
func formatProfileHuman(principal string, p *client.Profile) string {
	if p == nil {
		return fmt.Sprintf("No profile for %s", principal)
	}
	out := fmt.Sprintf("Name:       %s\nPrincipal:  %s", p.Name, principal)
	if p.Bio != "" {
		out += "\n\n" + p.Bio
	}
	return out
}

// formatProfileJSON formats a profile as JSON
func formatProfileJSON(principal string, p *client.Profile) string {
	output := map[string]any{
		"principal": principal,
		"profile":   p,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
