package out

import (
	"context"

	"github.com/bnema/lifeboat/internal/domain"
)

// DatabaseEngine is the dump/restore facility of the transactional store.
type DatabaseEngine interface {
	// Dump writes a compressed, restorable snapshot of the live database
	// to destPath. The file exists and is non-empty on nil error.
	Dump(ctx context.Context, destPath string) error

	// Restore applies a plain-SQL dump against the live database as a
	// single transaction.
	Restore(ctx context.Context, sqlPath string) error

	// Verify queries the live database for the post-restore diagnostic
	// counts.
	Verify(ctx context.Context) (domain.VerificationReport, error)
}
