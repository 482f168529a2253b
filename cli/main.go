// ABOUTME: Entry point for the crochet CLI
// ABOUTME: Browse, publish and track crochet projects from the terminal

package main

import (
	"fmt"
	"os"

	"github.com/caffeinepub/crocheting-app/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
