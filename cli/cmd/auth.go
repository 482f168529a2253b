// ABOUTME: Login, logout and whoami commands for the crochet CLI
// ABOUTME: Login signs a backend challenge with the local identity key

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/caffeinepub/crocheting-app/cli/internal/identity"
	"github.com/caffeinepub/crocheting-app/cli/internal/role"
)

var loginYes bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with your identity key",
	Long: `Log in to the studio. The first login creates an identity key in the
configuration directory; later logins reuse it, so you keep the same principal.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runLogin(ctx, os.Stdout, approveLogin)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runLogout(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in principal and role",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runWhoami(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	loginCmd.Flags().BoolVarP(&loginYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

// approveLogin asks before a key signs a login challenge.
func approveLogin(ctx context.Context, principal string, newKey bool) (bool, error) {
	if loginYes {
		return true, nil
	}
	title := "Log in as this principal?"
	if newKey {
		title = "Create a new studio identity?"
	}
	ok := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(principal).
				Affirmative("Log in").
				Negative("Cancel").
				Value(&ok),
		),
	).WithTheme(huh.ThemeBase())
	if err := form.RunWithContext(ctx); err != nil {
		return false, err
	}
	return ok, nil
}

// runLogin logs in and returns exit code
func runLogin(ctx context.Context, w io.Writer, approve identity.ApproveFunc) int {
	env, err := newEnvironment(ctx, approve)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer env.close()

	id, err := env.session.LoginWithRecovery(ctx)
	if errors.Is(err, identity.ErrLoginDenied) {
		fmt.Fprintln(w, "Login canceled.")
		return 1
	}
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if err := env.studio.Ready(ctx); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	needsProfile, err := env.studio.NeedsProfileSetup(ctx)
	if err != nil {
		env.logger.Warn("Profile check failed", "error", err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatWhoamiJSON(id, role.FlagUnknown))
		return 0
	}
	fmt.Fprintf(w, "Logged in as %s\n", id.Principal)
	if needsProfile {
		fmt.Fprintln(w, `Set up your profile with "crochet profile save --name <your name>".`)
	}
	return 0
}

// runLogout ends the session and returns exit code
func runLogout(ctx context.Context, w io.Writer) int {
	env, err := newEnvironment(ctx, nil)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer env.close()

	if _, err := env.session.Restore(ctx); err != nil {
		env.logger.Warn("Could not restore session before logout", "error", err)
	}
	if err := env.session.Logout(ctx); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	fmt.Fprintln(w, "Logged out.")
	return 0
}

// runWhoami reports the current identity and returns exit code
func runWhoami(ctx context.Context, w io.Writer) int {
	env, err := newEnvironment(ctx, nil)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer env.close()

	if err := env.resume(ctx); err != nil {
		if errors.Is(err, errNotLoggedIn) {
			fmt.Fprintln(w, "Not logged in.")
			return 1
		}
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	id := env.session.Identity()
	flag, err := env.studio.ResolveRole(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatWhoamiJSON(id, flag))
	} else {
		fmt.Fprintln(w, formatWhoamiHuman(id, flag, time.Now()))
	}
	return 0
}

func roleLabel(flag role.Flag) string {
	switch flag {
	case role.FlagGranted:
		return "admin"
	case role.FlagDenied:
		return "member"
	default:
		return "unknown"
	}
}

// formatWhoamiHuman formats the identity for human readability
func formatWhoamiHuman(id *identity.Identity, flag role.Flag, now time.Time) string {
	expires := "never"
	if !id.ExpiresAt.IsZero() {
		expires = humanize.RelTime(id.ExpiresAt, now, "ago", "from now")
	}
	return fmt.Sprintf(`Principal:  %s
Role:       %s
Session:    expires %s`, id.Principal, roleLabel(flag), expires)
}

// formatWhoamiJSON formats the identity as JSON
func formatWhoamiJSON(id *identity.Identity, flag role.Flag) string {
	output := map[string]any{
		"principal": id.Principal,
		"role":      roleLabel(flag),
	}
	if !id.ExpiresAt.IsZero() {
		output["expires_at"] = id.ExpiresAt.UTC().Format(time.RFC3339)
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
