package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bnema/lifeboat/internal/adapters/out/agecrypt"
	"github.com/bnema/lifeboat/internal/adapters/out/filesystem"
	"github.com/bnema/lifeboat/internal/adapters/out/lock"
	"github.com/bnema/lifeboat/internal/adapters/out/notify"
	"github.com/bnema/lifeboat/internal/adapters/out/postgres"
	"github.com/bnema/lifeboat/internal/adapters/out/s3"
	"github.com/bnema/lifeboat/internal/boundaries/out"
	"github.com/bnema/lifeboat/internal/config"
)

// runtime holds the shared wiring every command needs: validated config, a
// logger that tees to stderr and the per-run log file, and the artifact
// store that owns the backup directory layout.
type runtime struct {
	cfg     *config.Config
	log     *log.Logger
	store   *filesystem.ArtifactStore
	logFile *os.File
}

// newRuntime builds the shared dependencies for one command invocation.
// The run log lives under the backup root so the retention sweep manages
// its lifecycle along with the artifacts.
func newRuntime(command string) (*runtime, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})

	store, err := filesystem.NewArtifactStore(cfg.BackupDir, logger)
	if err != nil {
		return nil, err
	}

	logPath := store.LogPath(command, time.Now().UTC())
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		logger.Warn("could not open run log, logging to stderr only", "path", logPath, "error", err)
	} else {
		logger.SetOutput(io.MultiWriter(os.Stderr, logFile))
	}

	return &runtime{cfg: cfg, log: logger, store: store, logFile: logFile}, nil
}

func (rt *runtime) close() {
	if rt.logFile != nil {
		_ = rt.logFile.Close()
	}
}

func (rt *runtime) engine() *postgres.Engine {
	return postgres.NewEngine(rt.cfg.DB, rt.log)
}

func (rt *runtime) archiver() *filesystem.MediaArchiver {
	return filesystem.NewMediaArchiver(rt.log)
}

func (rt *runtime) cipher() *agecrypt.Cipher {
	return agecrypt.New(rt.cfg.Passphrase)
}

func (rt *runtime) lock() *lock.FileLock {
	return lock.New(rt.cfg.BackupDir)
}

// replicator returns nil when no bucket is configured; the backup service
// records the skip.
func (rt *runtime) replicator() (out.Replicator, error) {
	if !rt.cfg.ReplicationEnabled() {
		return nil, nil
	}
	return s3.New(rt.cfg.S3, rt.log)
}

func (rt *runtime) alerts() out.AlertSink {
	if !rt.cfg.AlertingEnabled() {
		return notify.NopSink{}
	}
	return notify.NewWebhookSink(rt.cfg.AlertWebhookURL, rt.log)
}
