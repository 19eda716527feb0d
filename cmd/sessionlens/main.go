// Package main provides the sessionlens CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	version = "0.1.0"
	pretty  = term.IsTerminal(int(os.Stdout.Fd()))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sessionlens",
		Short: "Turn raw platform activity into annotated user sessions",
		Long: `sessionlens reads user activity events from a warehouse, groups them
into sessions, and asks an LLM to describe and classify each session.

Results land in two NDJSON streams (intents.jsonl, errors.jsonl) plus a
per-session artifact directory for auditing.`,
		Version: version,
	}

	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", pretty, "Pretty print output")

	rootCmd.AddCommand(analyzeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
