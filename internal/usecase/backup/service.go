// Package backup drives the backup pipeline: dump the database, archive the
// media tree, encrypt, replicate offsite, then enforce retention. Each step
// returns a typed outcome; only fatal outcomes abort the leg they belong to.
package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/bnema/lifeboat/internal/boundaries/in"
	"github.com/bnema/lifeboat/internal/boundaries/out"
	"github.com/bnema/lifeboat/internal/config"
	"github.com/bnema/lifeboat/internal/domain"
)

// Service orchestrates one backup run.
type Service struct {
	cfg        *config.Config
	engine     out.DatabaseEngine
	media      out.MediaArchiver
	cipher     out.Cipher
	store      out.ArtifactStore
	replicator out.Replicator
	alerts     out.AlertSink
	lock       out.RunLock
	log        *log.Logger
}

// NewService creates a backup service. replicator may be nil when offsite
// replication is not configured.
func NewService(
	cfg *config.Config,
	engine out.DatabaseEngine,
	media out.MediaArchiver,
	cipher out.Cipher,
	store out.ArtifactStore,
	replicator out.Replicator,
	alerts out.AlertSink,
	lock out.RunLock,
	logger *log.Logger,
) *Service {
	return &Service{
		cfg:        cfg,
		engine:     engine,
		media:      media,
		cipher:     cipher,
		store:      store,
		replicator: replicator,
		alerts:     alerts,
		lock:       lock,
		log:        logger,
	}
}

var _ in.BackupService = (*Service)(nil)

// Run executes the pipeline. The database and media legs are isolated from
// each other: a fatal dump failure never stops the media archive, and a
// media warning never fails the run. The returned error is non-nil iff some
// step ended fatally.
func (s *Service) Run(ctx context.Context, opts in.BackupOptions) (*domain.BackupReport, error) {
	if opts.DBOnly && opts.MediaOnly {
		return nil, fmt.Errorf("--db-only and --media-only are mutually exclusive")
	}
	if !opts.MediaOnly && s.cfg.DB.Name == "" {
		return nil, fmt.Errorf("database backup requested but no database name configured")
	}

	release, err := s.lock.Acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	started := time.Now().UTC()
	report := &domain.BackupReport{RunID: uuid.NewString()[:8]}
	runLog := s.log.With("run", report.RunID)

	runLog.Info("backup run starting", "db_only", opts.DBOnly, "media_only", opts.MediaOnly)

	if !opts.MediaOnly {
		s.runDatabaseLeg(ctx, runLog, started, report)
	}
	if !opts.DBOnly {
		s.runMediaLeg(ctx, runLog, started, report)
	}

	s.replicate(ctx, runLog, report)
	s.retain(ctx, runLog, report)

	for _, step := range report.Steps {
		switch step.Outcome.Status {
		case domain.StatusWarn:
			runLog.Warn("step finished with warning", "step", step.Step, "reason", step.Outcome.Reason)
		case domain.StatusFatal:
			runLog.Error("step failed", "step", step.Step, "reason", step.Outcome.Reason)
		}
	}

	if report.HasFatal() {
		return report, report.FirstFatal()
	}
	runLog.Info("backup run finished", "artifacts", len(report.Artifacts))
	return report, nil
}

func (s *Service) runDatabaseLeg(ctx context.Context, runLog *log.Logger, started time.Time, report *domain.BackupReport) {
	path := s.store.ArtifactPath(domain.KindDatabase, started)

	runLog.Info("dumping database", "db", s.cfg.DB.Name, "path", path)
	if err := s.engine.Dump(ctx, path); err != nil {
		err = fmt.Errorf("%w: %s", domain.ErrDumpFailed, err)
		s.alerts.Notify(ctx, fmt.Sprintf("backup run %s: %s", report.RunID, err))
		report.Record("dump", domain.Fatal(err))
		return
	}
	report.Record("dump", domain.Ok())

	artifact := domain.Artifact{
		Kind:       domain.KindDatabase,
		Timestamp:  started,
		Path:       path,
		Compressed: true,
	}
	s.encrypt(ctx, runLog, &artifact, report)
}

func (s *Service) runMediaLeg(ctx context.Context, runLog *log.Logger, started time.Time, report *domain.BackupReport) {
	if s.cfg.MediaDir == "" {
		report.Record("archive", domain.Skipped("no media directory configured"))
		return
	}

	path := s.store.ArtifactPath(domain.KindMedia, started)

	runLog.Info("archiving media", "dir", s.cfg.MediaDir, "path", path)
	err := s.media.Archive(ctx, s.cfg.MediaDir, path)
	switch {
	case errors.Is(err, domain.ErrMediaDirMissing):
		report.Record("archive", domain.Skipped("media directory does not exist"))
		return
	case err != nil:
		// A partial or missing media backup never fails the run.
		report.Record("archive", domain.Warnf("media archive failed: %s", err))
		return
	}
	report.Record("archive", domain.Ok())

	artifact := domain.Artifact{
		Kind:       domain.KindMedia,
		Timestamp:  started,
		Path:       path,
		Compressed: true,
	}
	s.encrypt(ctx, runLog, &artifact, report)
}

// encrypt wraps one artifact. An encryption failure is fatal regardless of
// leg: requested encryption must never degrade to plaintext silently.
func (s *Service) encrypt(ctx context.Context, runLog *log.Logger, artifact *domain.Artifact, report *domain.BackupReport) {
	step := "encrypt_" + string(artifact.Kind)

	newPath, err := s.cipher.Encrypt(ctx, artifact.Path)
	if err != nil {
		err = fmt.Errorf("%w: %s", domain.ErrEncryptionFailed, err)
		s.alerts.Notify(ctx, fmt.Sprintf("backup run %s: %s", report.RunID, err))
		report.Record(step, domain.Fatal(err))
		return
	}

	if s.cipher.Enabled() {
		runLog.Info("artifact encrypted", "path", newPath)
		artifact.Path = newPath
		artifact.Encrypted = true
	}
	report.Record(step, domain.Ok())
	report.Artifacts = append(report.Artifacts, *artifact)
}

func (s *Service) replicate(ctx context.Context, runLog *log.Logger, report *domain.BackupReport) {
	if s.replicator == nil {
		report.Record("replicate", domain.Skipped("no replication bucket configured"))
		return
	}

	uploaded, err := s.replicator.Sync(ctx, s.cfg.BackupDir)
	if err != nil {
		// Best-effort offsite insurance, not a precondition for success.
		report.Record("replicate", domain.Warnf("offsite sync failed: %s", err))
		return
	}
	runLog.Info("artifacts replicated offsite", "bucket", s.cfg.S3.Bucket, "uploaded", uploaded)
	report.Record("replicate", domain.Ok())
}

// retain runs strictly after replication so cleanup never races an upload.
func (s *Service) retain(ctx context.Context, runLog *log.Logger, report *domain.BackupReport) {
	deleted, err := s.store.ApplyRetention(ctx, s.cfg.Retention)
	if err != nil {
		report.Record("retention", domain.Warnf("retention sweep failed: %s", err))
		return
	}
	if deleted > 0 {
		runLog.Info("retention sweep removed aged files", "deleted", deleted, "max_age_days", s.cfg.Retention.MaxAgeDays)
	}
	report.Record("retention", domain.Ok())
}
