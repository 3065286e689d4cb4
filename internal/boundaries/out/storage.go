package out

import (
	"context"
	"time"

	"github.com/bnema/lifeboat/internal/domain"
)

// ArtifactStore owns the backup directory layout: canonical artifact paths,
// the pre-restore area, run logs, and the age-based retention sweep.
type ArtifactStore interface {
	// ArtifactPath returns the canonical path for a new artifact.
	ArtifactPath(kind domain.ArtifactKind, t time.Time) string

	// PreRestorePath returns the path for a safety snapshot taken before
	// a destructive restore. Pre-restore snapshots are exempt from
	// retention.
	PreRestorePath(kind domain.ArtifactKind, t time.Time) string

	// List returns the artifacts currently on local storage, newest first.
	List() ([]domain.Artifact, error)

	// ApplyRetention deletes artifacts and run logs older than the policy
	// allows, by modification time. Idempotent.
	ApplyRetention(ctx context.Context, policy domain.RetentionPolicy) (deleted int, err error)
}
