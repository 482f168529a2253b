// ABOUTME: Interactive studio command for the crochet CLI
// ABOUTME: Restores any saved login and hands the terminal to the TUI

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/caffeinepub/crocheting-app/cli/internal/tui"
	"github.com/caffeinepub/crocheting-app/cli/internal/tui/recentfiles"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive studio",
	Long: `Open the interactive studio. Browsing the gallery and tutorials needs a
login; press l inside the studio to log in with your identity key.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runTUI(ctx, os.Stderr)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// runTUI starts the studio TUI. Logging in from inside the TUI approves the
// key without a prompt since the terminal belongs to the TUI.
func runTUI(ctx context.Context, w io.Writer) int {
	env, err := newEnvironment(ctx, nil)
	if err != nil {
		return report(w, err)
	}
	defer env.close()

	if _, err := env.session.Restore(ctx); err != nil {
		return report(w, err)
	}

	if err := tui.Run(env.studio, recentfiles.New(env.cfg.ConfigDir)); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	return 0
}
