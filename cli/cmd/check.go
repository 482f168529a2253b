// ABOUTME: Check command for the crochet CLI
// ABOUTME: Verifies the backend, login and profile are ready for use in scripts

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
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the studio is ready to use",
	Long: `Check that the backend is reachable, a login is stored and usable, and
the profile is set up. Exits non-zero if any check fails.

Exit codes:
  0 - All checks passed
  1 - One or more checks failed
  2 - Error (configuration, unreadable identity)`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runCheck(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// checkResult represents the result of a single readiness check
type checkResult struct {
	name   string
	detail string
	passed bool
}

// runCheck executes the readiness checks and returns exit code
func runCheck(ctx context.Context, w io.Writer) int {
	env, err := newEnvironment(ctx, nil)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer env.close()

	results := performChecks(ctx, env)

	if IsJSONOutput() {
		fmt.Fprintln(w, formatCheckJSON(results))
	} else {
		fmt.Fprintln(w, formatCheckHuman(results))
	}

	if _, failed := countResults(results); failed > 0 {
		return 1
	}
	return 0
}

// performChecks runs each check in order; later checks are skipped once
// one they depend on fails.
func performChecks(ctx context.Context, env *environment) []checkResult {
	var results []checkResult

	if _, err := env.client.Health(ctx); err != nil {
		return append(results, checkResult{name: "Backend", detail: err.Error()})
	}
	results = append(results, checkResult{name: "Backend", detail: env.url, passed: true})

	id, err := env.session.Restore(ctx)
	if err != nil || id == nil {
		detail := errNotLoggedIn.Error()
		if err != nil {
			detail = err.Error()
		}
		return append(results, checkResult{name: "Login", detail: detail})
	}
	results = append(results, checkResult{name: "Login", detail: id.Principal, passed: true})

	if err := env.studio.Ready(ctx); err != nil {
		return append(results, checkResult{name: "Connection", detail: err.Error()})
	}
	results = append(results, checkResult{name: "Connection", detail: "authenticated", passed: true})

	needs, err := env.studio.NeedsProfileSetup(ctx)
	switch {
	case err != nil:
		results = append(results, checkResult{name: "Profile", detail: err.Error()})
	case needs:
		results = append(results, checkResult{name: "Profile", detail: "not set up"})
	default:
		results = append(results, checkResult{name: "Profile", detail: "set up", passed: true})
	}
	return results
}

// countResults returns the count of passed and failed checks
func countResults(results []checkResult) (passed, failed int) {
	for _, r := range results {
		if r.passed {
			passed++
		} else {
			failed++
		}
	}
	return
}

// formatCheckHuman formats check results for human readability
func formatCheckHuman(results []checkResult) string {
	var output string

	for _, r := range results {
		symbol := "✓"
		if !r.passed {
			symbol = "✗"
		}
		output += fmt.Sprintf("%s %s: %s\n", symbol, r.name, r.detail)
	}

	passed, failed := countResults(results)
	if failed > 0 {
		output += fmt.Sprintf("\nFAILED: %d check(s) failed", failed)
	} else {
		output += fmt.Sprintf("\nPASSED: All %d check(s) passed", passed)
	}

	return output
}

// formatCheckJSON formats check results as JSON
func formatCheckJSON(results []checkResult) string {
	_, failed := countResults(results)

	checks := make([]map[string]any, len(results))
	for i, r := range results {
		checks[i] = map[string]any{
			"name":   r.name,
			"detail": r.detail,
			"passed": r.passed,
		}
	}

	status := "passed"
	if failed > 0 {
		status = "failed"
	}

	data, _ := json.MarshalIndent(map[string]any{
		"status": status,
		"checks": checks,
	}, "", "  ")
	return string(data)
}
