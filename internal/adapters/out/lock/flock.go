// Package lock serializes pipeline runs with a file lock in the backup
// root, so concurrent cron and operator invocations fail fast instead of
// interleaving writes.
package lock

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/bnema/lifeboat/internal/boundaries/out"
	"github.com/bnema/lifeboat/internal/domain"
)

const lockFileName = "run.lock"

// FileLock implements out.RunLock with an advisory flock in the backup root.
type FileLock struct {
	path string
}

// New creates a lock rooted in the backup directory.
func New(backupDir string) *FileLock {
	return &FileLock{path: filepath.Join(backupDir, lockFileName)}
}

var _ out.RunLock = (*FileLock)(nil)

// Acquire takes the lock without blocking. A held lock means another run is
// in flight and this one must not start.
func (l *FileLock) Acquire() (func(), error) {
	fl := flock.New(l.path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock %q: %w", l.path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", domain.ErrLockHeld, l.path)
	}
	return func() { _ = fl.Unlock() }, nil
}
