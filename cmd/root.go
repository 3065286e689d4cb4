// Package cmd wires the lifeboat CLI: one command per pipeline, with all
// configuration coming from the environment.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Build metadata, injected via ldflags.
var (
	BuildVersion = "dev"
	BuildCommit  = "none"
	BuildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "lifeboat",
	Short: "Backup and restore pipeline for a PostgreSQL + media deployment",
	Long: `Lifeboat backs up a PostgreSQL database and its media tree into
timestamped artifacts, optionally encrypts them, replicates offsite to
S3-compatible storage, and restores them behind an explicit confirmation
gate with a pre-restore safety snapshot.`,
	SilenceUsage: true,
}

// Execute runs the CLI and exits non-zero on failure.
func Execute(version, commit, date string) {
	if version != "" {
		BuildVersion = version
	}
	if commit != "" {
		BuildCommit = commit
	}
	if date != "" {
		BuildDate = date
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
