package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/lifeboat/internal/boundaries/in"
	"github.com/bnema/lifeboat/internal/domain"
	"github.com/bnema/lifeboat/internal/usecase/backup"
)

var (
	backupDBOnly    bool
	backupMediaOnly bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Run the backup pipeline",
	Long: `Dumps the database and archives the media tree into timestamped
artifacts, encrypts them when a passphrase is configured, replicates the
backup root offsite, and applies the retention policy. Designed to run
unattended from cron; a held run lock fails fast.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime("backup")
		if err != nil {
			return err
		}
		defer rt.close()

		replicator, err := rt.replicator()
		if err != nil {
			return err
		}

		svc := backup.NewService(
			rt.cfg,
			rt.engine(),
			rt.archiver(),
			rt.cipher(),
			rt.store,
			replicator,
			rt.alerts(),
			rt.lock(),
			rt.log,
		)

		report, err := svc.Run(cmd.Context(), in.BackupOptions{
			DBOnly:    backupDBOnly,
			MediaOnly: backupMediaOnly,
		})
		if report != nil {
			printBackupReport(report)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.Flags().BoolVar(&backupDBOnly, "db-only", false, "back up only the database")
	backupCmd.Flags().BoolVar(&backupMediaOnly, "media-only", false, "back up only the media tree")
}

func printBackupReport(report *domain.BackupReport) {
	fmt.Printf("Backup run %s\n", report.RunID)
	for _, step := range report.Steps {
		switch step.Outcome.Status {
		case domain.StatusOK:
			if step.Outcome.Reason != "" {
				fmt.Printf("  %-16s skipped (%s)\n", step.Step, step.Outcome.Reason)
			} else {
				fmt.Printf("  %-16s ok\n", step.Step)
			}
		case domain.StatusWarn:
			fmt.Printf("  %-16s warning: %s\n", step.Step, step.Outcome.Reason)
		case domain.StatusFatal:
			fmt.Printf("  %-16s FAILED: %s\n", step.Step, step.Outcome.Reason)
		}
	}
	for _, artifact := range report.Artifacts {
		fmt.Printf("  artifact: %s\n", artifact.Path)
	}
}
