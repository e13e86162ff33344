// Package main is the entry point of the job alert scheduler: the admin API,
// the cron driven alert passes, the mail worker and one-off maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Job alert and social post scheduler",
	Long:  "Matches newly published jobs against recipient interest profiles, queues alert notifications at most once per window, and keeps social posts in sync with job status.",
	// usage output is for flag errors only
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
