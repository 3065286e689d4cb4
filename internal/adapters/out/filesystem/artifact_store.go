// Package filesystem persists backup artifacts on local disk: canonical
// paths under the backup root, the pre-restore safety area, run logs, the
// retention sweep, and the media tar.gz archiver.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bnema/lifeboat/internal/boundaries/out"
	"github.com/bnema/lifeboat/internal/domain"
)

const (
	preRestoreDir = "pre_restore"
	logsDir       = "logs"
)

// ArtifactStore implements out.ArtifactStore on a local backup root.
type ArtifactStore struct {
	rootDir string
	log     *log.Logger
}

// NewArtifactStore creates the backup root layout if needed.
func NewArtifactStore(rootDir string, logger *log.Logger) (*ArtifactStore, error) {
	rootDir = expandTilde(rootDir)

	for _, dir := range []string{rootDir, filepath.Join(rootDir, preRestoreDir), filepath.Join(rootDir, logsDir)} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create backup directory: %w", err)
		}
	}

	return &ArtifactStore{rootDir: rootDir, log: logger}, nil
}

var _ out.ArtifactStore = (*ArtifactStore)(nil)

// Root returns the backup root directory.
func (s *ArtifactStore) Root() string { return s.rootDir }

// LogPath returns the run-log file path for a command invocation.
func (s *ArtifactStore) LogPath(command string, t time.Time) string {
	name := fmt.Sprintf("%s_%s.log", command, t.UTC().Format("20060102_150405"))
	return filepath.Join(s.rootDir, logsDir, name)
}

// ArtifactPath returns the canonical path for a new artifact.
func (s *ArtifactStore) ArtifactPath(kind domain.ArtifactKind, t time.Time) string {
	return filepath.Join(s.rootDir, domain.ArtifactName(kind, t))
}

// PreRestorePath returns the path for a pre-restore safety snapshot.
func (s *ArtifactStore) PreRestorePath(kind domain.ArtifactKind, t time.Time) string {
	return filepath.Join(s.rootDir, preRestoreDir, domain.ArtifactName(kind, t))
}

// List returns the artifacts at the top of the backup root, newest first.
// Files that do not parse as artifacts are ignored.
func (s *ArtifactStore) List() ([]domain.Artifact, error) {
	entries, err := os.ReadDir(s.rootDir)
	if err != nil {
		return nil, err
	}

	artifacts := make([]domain.Artifact, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		artifact, err := domain.ParseArtifactName(entry.Name())
		if err != nil {
			continue
		}
		artifact.Path = filepath.Join(s.rootDir, entry.Name())
		artifacts = append(artifacts, artifact)
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Timestamp.After(artifacts[j].Timestamp)
	})
	return artifacts, nil
}

// ApplyRetention deletes artifacts and run logs whose modification time is
// older than the policy allows. The pre-restore area is exempt: those are
// rollback points, not scheduled artifacts. Idempotent by construction.
func (s *ArtifactStore) ApplyRetention(_ context.Context, policy domain.RetentionPolicy) (int, error) {
	if err := policy.Validate(); err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-time.Duration(policy.MaxAgeDays) * 24 * time.Hour)

	deleted, err := s.sweepDir(s.rootDir, cutoff, func(name string) bool {
		_, parseErr := domain.ParseArtifactName(name)
		return parseErr == nil
	})
	if err != nil {
		return deleted, err
	}

	logsDeleted, err := s.sweepDir(filepath.Join(s.rootDir, logsDir), cutoff, func(name string) bool {
		return strings.HasSuffix(name, ".log")
	})
	return deleted + logsDeleted, err
}

func (s *ArtifactStore) sweepDir(dir string, cutoff time.Time, match func(string) bool) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() || !match(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if !pathWithinRoot(s.rootDir, path) {
			continue
		}
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return deleted, err
		}
		s.log.Debug("retention removed aged file", "path", path)
		deleted++
	}
	return deleted, nil
}

// expandTilde replaces a leading "~/" with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path[2:])
	}
	return path
}

func pathWithinRoot(root, path string) bool {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	pathAbs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(filepath.Clean(rootAbs), filepath.Clean(pathAbs))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
