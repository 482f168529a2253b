// ABOUTME: Health command for the crochet CLI
// ABOUTME: Checks backend connectivity and reports catalogue sizes

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
	"github.com/caffeinepub/crocheting-app/cli/internal/config"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend connectivity",
	Long:  `Check connectivity to the crocheting studio backend and verify service status.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runHealth(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

// runHealth executes the health check and returns exit code
func runHealth(ctx context.Context, w io.Writer) int {
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	url := resolveAPIURL(cfg)
	c := client.New(url)

	resp, err := c.Health(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatHealthJSON(url, resp))
	} else {
		fmt.Fprintln(w, formatHealthHuman(url, resp))
	}

	return 0
}

// formatHealthHuman formats health response for human readability
func formatHealthHuman(url string, resp *client.HealthResponse) string {
	version := resp.Version
	if version == "" {
		version = "unknown"
	}
	return fmt.Sprintf(`Backend:    %s
Status:     %s
Version:    %s
Projects:   %d
Tutorials:  %d
Images:     %d`, url, resp.Status, version, resp.Projects, resp.Tutorials, resp.Blobs)
}

// formatHealthJSON formats health response as JSON
func formatHealthJSON(url string, resp *client.HealthResponse) string {
	output := map[string]any{
		"backend":   url,
		"status":    resp.Status,
		"version":   resp.Version,
		"projects":  resp.Projects,
		"tutorials": resp.Tutorials,
		"blobs":     resp.Blobs,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
