// ABOUTME: Root command for the crochet CLI
// ABOUTME: Handles global flags and configuration

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/caffeinepub/crocheting-app/cli/internal/config"
)

var (
	apiURL     string
	jsonOutput bool
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "crochet",
	Short: "CLI for the crocheting studio",
	Long: `crochet is a command-line interface for the crocheting studio.

Share projects, track your progress and browse tutorials from the terminal,
or run "crochet tui" for the interactive studio.

Environment Variables:
  CROCHET_API_URL             Backend API URL (default: http://localhost:8080)
  CROCHET_CONFIG_DIR          Where the identity key is kept
  CROCHET_UPLOAD_LIMIT        Images per project (default: 5)
  CROCHET_UPLOAD_CONCURRENCY  Parallel image uploads (default: 3)
  CROCHET_LOGIN_RETRY_DELAY   Pause before retrying a wedged login (default: 300ms)
  CROCHET_BLOB_CACHE_SIZE     Images kept in memory (default: 64)
  CROCHET_BLOB_CACHE_TTL      How long fetched images are kept (default: 10m)
  CROCHET_DEBUG_LOG           Write debug logs to this file`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides CROCHET_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// resolveAPIURL returns the API URL from flag, then configuration
func resolveAPIURL(cfg *config.Config) string {
	if apiURL != "" {
		return apiURL
	}
	return cfg.APIURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}
