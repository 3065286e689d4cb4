package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bnema/lifeboat/internal/adapters/in/prompt"
	"github.com/bnema/lifeboat/internal/domain"
	"github.com/bnema/lifeboat/internal/usecase/restore"
)

var restoreYes bool

var restoreCmd = &cobra.Command{
	Use:   "restore <db-artifact> [media-artifact]",
	Short: "Restore the database (and optionally media) from backup artifacts",
	Long: `Restores a database dump against the live database inside a single
transaction, after taking a pre-restore safety snapshot. Artifacts may be
given as bare names (resolved against the backup directory) or full paths.
The operation overwrites live data and requires typing ` + domain.ConfirmToken + `
unless --yes is passed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime("restore")
		if err != nil {
			return err
		}
		defer rt.close()

		req := domain.RestoreRequest{
			DatabaseArtifact: resolveArtifact(rt.store.Root(), args[0]),
			ForceConfirmed:   restoreYes,
		}
		if len(args) == 2 {
			req.MediaArtifact = resolveArtifact(rt.store.Root(), args[1])
		}

		svc := restore.NewService(
			rt.cfg,
			rt.engine(),
			rt.archiver(),
			rt.cipher(),
			rt.store,
			prompt.SurveyConfirmer{},
			rt.lock(),
			rt.log,
		)

		result, err := svc.Run(cmd.Context(), req)
		if err != nil {
			return err
		}

		switch result.Status {
		case domain.RestoreAborted:
			fmt.Println("Restore cancelled; nothing was changed.")
		case domain.RestoreCompleted:
			fmt.Println("Restore completed.")
			if result.PreRestoreSnapshot != "" {
				fmt.Printf("  pre-restore snapshot: %s\n", result.PreRestoreSnapshot)
			}
			if result.Report != nil {
				fmt.Printf("  tables: %d, RLS-enabled: %d\n",
					result.Report.TableCount, result.Report.RLSEnabledCount)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "skip the interactive confirmation prompt")
}

// resolveArtifact turns a bare artifact name into a path under the backup
// root; explicit paths pass through unchanged.
func resolveArtifact(root, arg string) string {
	if filepath.Dir(arg) != "." {
		return arg
	}
	return filepath.Join(root, arg)
}
