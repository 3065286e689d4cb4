package in

import (
	"context"

	"github.com/bnema/lifeboat/internal/domain"
)

// BackupOptions narrows a backup run to one leg of the pipeline.
type BackupOptions struct {
	DBOnly    bool
	MediaOnly bool
}

// BackupService drives the backup pipeline: dump, archive, encrypt,
// replicate, retain.
type BackupService interface {
	Run(ctx context.Context, opts BackupOptions) (*domain.BackupReport, error)
}
