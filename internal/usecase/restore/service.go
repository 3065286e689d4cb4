// Package restore implements the restore state machine: validate, confirm,
// snapshot, decrypt, decompress, restore, media, cleanup, verify. The
// states run strictly in that order with no backward transitions; the
// pre-restore snapshot is the only rollback path once the destructive
// section has started.
package restore

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bnema/lifeboat/internal/boundaries/in"
	"github.com/bnema/lifeboat/internal/boundaries/out"
	"github.com/bnema/lifeboat/internal/config"
	"github.com/bnema/lifeboat/internal/domain"
)

// Service orchestrates one restore run.
type Service struct {
	cfg       *config.Config
	engine    out.DatabaseEngine
	media     out.MediaArchiver
	cipher    out.Cipher
	store     out.ArtifactStore
	confirmer out.IntentConfirmer
	lock      out.RunLock
	log       *log.Logger
}

// NewService creates a restore service.
func NewService(
	cfg *config.Config,
	engine out.DatabaseEngine,
	media out.MediaArchiver,
	cipher out.Cipher,
	store out.ArtifactStore,
	confirmer out.IntentConfirmer,
	lock out.RunLock,
	logger *log.Logger,
) *Service {
	return &Service{
		cfg:       cfg,
		engine:    engine,
		media:     media,
		cipher:    cipher,
		store:     store,
		confirmer: confirmer,
		lock:      lock,
		log:       logger,
	}
}

var _ in.RestoreService = (*Service)(nil)

// Run executes the restore state machine. A nil error with status Aborted
// means the operator cancelled; that is not a failure.
func (s *Service) Run(ctx context.Context, req domain.RestoreRequest) (*domain.RestoreResult, error) {
	release, err := s.lock.Acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	// ValidateInputs: abort before any mutation.
	dbArtifact, err := s.validate(req)
	if err != nil {
		return &domain.RestoreResult{Status: domain.RestoreAborted}, err
	}

	// ConfirmIntent: mismatch is a cancellation, not an error.
	if !s.confirmed(ctx, req) {
		s.log.Info("restore cancelled by operator")
		return &domain.RestoreResult{Status: domain.RestoreAborted}, nil
	}

	started := time.Now().UTC()
	result := &domain.RestoreResult{}

	// PreRestoreSnapshot: best effort. The target store may legitimately
	// be empty, so a failed snapshot degrades safety but never blocks
	// recovery.
	snapshotPath := s.store.PreRestorePath(domain.KindDatabase, started)
	if err := s.engine.Dump(ctx, snapshotPath); err != nil {
		s.log.Warn("pre-restore snapshot failed, continuing without a rollback point", "error", err)
	} else {
		s.log.Info("pre-restore snapshot written", "path", snapshotPath)
		result.PreRestoreSnapshot = snapshotPath
	}

	// Scoped workspace for decrypted/decompressed intermediates, removed
	// on every exit path below.
	workDir, err := os.MkdirTemp("", "lifeboat-restore-")
	if err != nil {
		result.Status = domain.RestoreFailed
		return result, fmt.Errorf("failed to create restore workspace: %w", err)
	}
	defer os.RemoveAll(workDir)

	// DecryptIfNeeded + DecompressIfNeeded.
	sqlPath, err := s.prepareDatabaseArtifact(ctx, dbArtifact, workDir)
	if err != nil {
		result.Status = domain.RestoreFailed
		return result, err
	}

	// RestoreDatabase: single transaction against the live store.
	s.log.Info("restoring database", "db", s.cfg.DB.Name, "artifact", dbArtifact.Path)
	if err := s.engine.Restore(ctx, sqlPath); err != nil {
		result.Status = domain.RestoreFailed
		s.log.Error("database restore failed; roll back manually from the pre-restore snapshot",
			"snapshot", result.PreRestoreSnapshot)
		return result, fmt.Errorf("%w: %s", domain.ErrRestoreEngine, err)
	}

	// RestoreMedia: optional, and never fails an already-committed
	// database restore.
	if req.MediaArtifact != "" {
		s.restoreMedia(ctx, req.MediaArtifact, workDir, started)
	}

	// Verify: diagnostic only, the restore is already committed.
	report, err := s.engine.Verify(ctx)
	if err != nil {
		s.log.Warn("post-restore verification failed", "error", err)
	} else {
		result.Report = &report
	}

	result.Status = domain.RestoreCompleted
	return result, nil
}

// validate checks the request before anything is mutated. On failure the
// available artifacts are logged as a hint.
func (s *Service) validate(req domain.RestoreRequest) (domain.Artifact, error) {
	artifact, err := domain.ParseArtifactName(req.DatabaseArtifact)
	if err != nil {
		s.logCandidates()
		return domain.Artifact{}, fmt.Errorf("%w: %s", domain.ErrRestoreValidation, err)
	}
	artifact.Path = req.DatabaseArtifact

	if err := checkReadable(req.DatabaseArtifact); err != nil {
		s.logCandidates()
		return domain.Artifact{}, fmt.Errorf("%w: database artifact: %s", domain.ErrRestoreValidation, err)
	}

	if req.MediaArtifact != "" {
		if err := checkReadable(req.MediaArtifact); err != nil {
			return domain.Artifact{}, fmt.Errorf("%w: media artifact: %s", domain.ErrRestoreValidation, err)
		}
	}

	return artifact, nil
}

func (s *Service) confirmed(ctx context.Context, req domain.RestoreRequest) bool {
	if req.ForceConfirmed {
		return true
	}

	prompt := fmt.Sprintf("This will OVERWRITE database %q. Type %s to proceed", s.cfg.DB.Name, domain.ConfirmToken)
	token, err := s.confirmer.Token(ctx, prompt)
	if err != nil {
		s.log.Warn("could not read confirmation", "error", err)
		return false
	}
	return domain.Confirm(domain.ConfirmToken, token, req.ForceConfirmed)
}

// prepareDatabaseArtifact turns the supplied artifact into a plain SQL file
// inside workDir, decrypting and decompressing as its name dictates.
func (s *Service) prepareDatabaseArtifact(ctx context.Context, artifact domain.Artifact, workDir string) (string, error) {
	path := artifact.Path

	if artifact.Encrypted {
		if !s.cipher.Enabled() {
			return "", fmt.Errorf("%w: artifact is encrypted and no passphrase is configured", domain.ErrDecryptionFailed)
		}
		plainPath := filepath.Join(workDir, strings.TrimSuffix(filepath.Base(path), domain.EncryptionSuffix))
		if err := s.cipher.DecryptTo(ctx, path, plainPath); err != nil {
			return "", err
		}
		path = plainPath
	}

	sqlPath := filepath.Join(workDir, "restore.sql")
	if err := gunzip(path, sqlPath); err != nil {
		return "", fmt.Errorf("failed to decompress artifact: %w", err)
	}
	return sqlPath, nil
}

// restoreMedia snapshots the live media tree into the pre-restore area, then
// extracts the supplied archive over it. All failures here are warnings: the
// database restore has already committed.
func (s *Service) restoreMedia(ctx context.Context, mediaArtifact, workDir string, started time.Time) {
	if s.cfg.MediaDir == "" {
		s.log.Warn("media artifact supplied but no media directory configured, skipping")
		return
	}

	snapshot := s.store.PreRestorePath(domain.KindMedia, started)
	if err := s.media.Archive(ctx, s.cfg.MediaDir, snapshot); err != nil && !errors.Is(err, domain.ErrMediaDirMissing) {
		s.log.Warn("pre-restore media snapshot failed, continuing", "error", err)
	}

	archivePath := mediaArtifact
	if strings.HasSuffix(archivePath, domain.EncryptionSuffix) {
		if !s.cipher.Enabled() {
			s.log.Warn("media artifact is encrypted and no passphrase is configured, skipping media restore")
			return
		}
		plainPath := filepath.Join(workDir, strings.TrimSuffix(filepath.Base(archivePath), domain.EncryptionSuffix))
		if err := s.cipher.DecryptTo(ctx, archivePath, plainPath); err != nil {
			s.log.Warn("media artifact decryption failed, skipping media restore", "error", err)
			return
		}
		archivePath = plainPath
	}

	s.log.Info("restoring media", "artifact", mediaArtifact, "dir", s.cfg.MediaDir)
	if err := s.media.Extract(ctx, archivePath, s.cfg.MediaDir); err != nil {
		s.log.Warn("media restore failed", "error", err)
	}
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

func (s *Service) logCandidates() {
	artifacts, err := s.store.List()
	if err != nil || len(artifacts) == 0 {
		return
	}
	names := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		names = append(names, a.Name())
	}
	s.log.Info("available artifacts", "names", strings.Join(names, ", "))
}

func gunzip(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return err
	}
	defer zr.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, zr); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
