package out

import "context"

// Replicator pushes completed artifacts to offsite object storage. The sync
// is one-way and idempotent; overwriting by key is safe.
type Replicator interface {
	Sync(ctx context.Context, rootDir string) (uploaded int, err error)
}
