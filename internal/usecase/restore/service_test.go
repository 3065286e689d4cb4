package restore

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/lifeboat/internal/config"
	"github.com/bnema/lifeboat/internal/domain"
)

type fakeEngine struct {
	dumpErr    error
	dumps      []string
	restoreErr error
	restored   []string
	verifyErr  error
	report     domain.VerificationReport
}

func (f *fakeEngine) Dump(_ context.Context, dest string) error {
	if f.dumpErr != nil {
		return f.dumpErr
	}
	f.dumps = append(f.dumps, dest)
	return nil
}

func (f *fakeEngine) Restore(_ context.Context, sqlPath string) error {
	if f.restoreErr != nil {
		return f.restoreErr
	}
	data, err := os.ReadFile(sqlPath)
	if err != nil {
		return err
	}
	f.restored = append(f.restored, string(data))
	return nil
}

func (f *fakeEngine) Verify(context.Context) (domain.VerificationReport, error) {
	return f.report, f.verifyErr
}

type fakeArchiver struct {
	archiveErr error
	archives   []string
	extractErr error
	extracts   [][2]string
}

func (f *fakeArchiver) Archive(_ context.Context, _, dest string) error {
	if f.archiveErr != nil {
		return f.archiveErr
	}
	f.archives = append(f.archives, dest)
	return nil
}

func (f *fakeArchiver) Extract(_ context.Context, archive, dest string) error {
	if f.extractErr != nil {
		return f.extractErr
	}
	f.extracts = append(f.extracts, [2]string{archive, dest})
	return nil
}

type fakeCipher struct {
	enabled    bool
	decryptErr error
}

func (f *fakeCipher) Enabled() bool { return f.enabled }

func (f *fakeCipher) Encrypt(_ context.Context, path string) (string, error) { return path, nil }

// DecryptTo copies src to dest; tests store plaintext behind the .age name.
func (f *fakeCipher) DecryptTo(_ context.Context, src, dest string) error {
	if f.decryptErr != nil {
		return f.decryptErr
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o600)
}

type fakeStore struct {
	preRestoreDir string
}

func (f *fakeStore) ArtifactPath(kind domain.ArtifactKind, t time.Time) string {
	return filepath.Join(f.preRestoreDir, domain.ArtifactName(kind, t))
}

func (f *fakeStore) PreRestorePath(kind domain.ArtifactKind, t time.Time) string {
	return filepath.Join(f.preRestoreDir, "pre_restore", domain.ArtifactName(kind, t))
}

func (f *fakeStore) List() ([]domain.Artifact, error) { return nil, nil }

func (f *fakeStore) ApplyRetention(context.Context, domain.RetentionPolicy) (int, error) {
	return 0, nil
}

type fakeConfirmer struct {
	token string
	err   error
	calls int
}

func (f *fakeConfirmer) Token(context.Context, string) (string, error) {
	f.calls++
	return f.token, f.err
}

type fakeLock struct {
	acquireErr error
}

func (f *fakeLock) Acquire() (func(), error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	return func() {}, nil
}

type fixture struct {
	engine    *fakeEngine
	media     *fakeArchiver
	cipher    *fakeCipher
	store     *fakeStore
	confirmer *fakeConfirmer
	lock      *fakeLock
	svc       *Service
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	f := &fixture{
		engine:    &fakeEngine{report: domain.VerificationReport{TableCount: 12, RLSEnabledCount: 4}},
		media:     &fakeArchiver{},
		cipher:    &fakeCipher{},
		store:     &fakeStore{preRestoreDir: t.TempDir()},
		confirmer: &fakeConfirmer{token: domain.ConfirmToken},
		lock:      &fakeLock{},
	}
	f.svc = NewService(cfg, f.engine, f.media, f.cipher, f.store, f.confirmer, f.lock, log.New(io.Discard))
	return f
}

func testConfig(mediaDir string) *config.Config {
	return &config.Config{
		BackupDir: "/backups",
		Retention: domain.RetentionPolicy{MaxAgeDays: 30},
		DB:        config.DatabaseConfig{Name: "appdb", User: "postgres", Host: "localhost", Port: 5432},
		MediaDir:  mediaDir,
	}
}

// writeDBArtifact writes a gzip-compressed SQL artifact with a canonical
// name and returns its path.
func writeDBArtifact(t *testing.T, dir, sql string, encrypted bool) string {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(sql))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	name := domain.ArtifactName(domain.KindDatabase, time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC))
	if encrypted {
		name += domain.EncryptionSuffix
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestValidationFailureAbortsBeforeAnyMutation(t *testing.T) {
	f := newFixture(t, testConfig(""))

	result, err := f.svc.Run(context.Background(), domain.RestoreRequest{
		DatabaseArtifact: "/backups/db_20260825_143000.sql.gz", // does not exist
		ForceConfirmed:   true,
	})
	require.ErrorIs(t, err, domain.ErrRestoreValidation)
	assert.Equal(t, domain.RestoreAborted, result.Status)

	// No pre-restore snapshot, no restore, nothing touched.
	assert.Empty(t, f.engine.dumps)
	assert.Empty(t, f.engine.restored)
}

func TestValidationRejectsUnrecognizedName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.custom")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	f := newFixture(t, testConfig(""))
	result, err := f.svc.Run(context.Background(), domain.RestoreRequest{
		DatabaseArtifact: path,
		ForceConfirmed:   true,
	})
	require.ErrorIs(t, err, domain.ErrRestoreValidation)
	assert.Equal(t, domain.RestoreAborted, result.Status)
}

func TestValidationChecksMediaArtifact(t *testing.T) {
	dir := t.TempDir()
	dbPath := writeDBArtifact(t, dir, "SELECT 1;", false)

	f := newFixture(t, testConfig(""))
	_, err := f.svc.Run(context.Background(), domain.RestoreRequest{
		DatabaseArtifact: dbPath,
		MediaArtifact:    filepath.Join(dir, "media_20260825_143000.tar.gz"),
		ForceConfirmed:   true,
	})
	require.ErrorIs(t, err, domain.ErrRestoreValidation)
	assert.Empty(t, f.engine.dumps)
}

func TestOperatorCancellationIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	dbPath := writeDBArtifact(t, dir, "SELECT 1;", false)

	f := newFixture(t, testConfig(""))
	f.confirmer.token = "nope"

	result, err := f.svc.Run(context.Background(), domain.RestoreRequest{DatabaseArtifact: dbPath})
	require.NoError(t, err)
	assert.Equal(t, domain.RestoreAborted, result.Status)
	assert.Empty(t, f.engine.dumps)
	assert.Empty(t, f.engine.restored)
}

func TestForceSkipsConfirmationPrompt(t *testing.T) {
	dir := t.TempDir()
	dbPath := writeDBArtifact(t, dir, "SELECT 1;", false)

	f := newFixture(t, testConfig(""))
	result, err := f.svc.Run(context.Background(), domain.RestoreRequest{
		DatabaseArtifact: dbPath,
		ForceConfirmed:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RestoreCompleted, result.Status)
	assert.Equal(t, 0, f.confirmer.calls)
}

func TestHappyPathRestoresAndVerifies(t *testing.T) {
	dir := t.TempDir()
	dbPath := writeDBArtifact(t, dir, "CREATE TABLE t (id int);", false)

	f := newFixture(t, testConfig(""))
	result, err := f.svc.Run(context.Background(), domain.RestoreRequest{
		DatabaseArtifact: dbPath,
		ForceConfirmed:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RestoreCompleted, result.Status)
	require.Len(t, f.engine.restored, 1)
	assert.Equal(t, "CREATE TABLE t (id int);", f.engine.restored[0])

	// The snapshot preceded the restore and is reported back.
	require.Len(t, f.engine.dumps, 1)
	assert.Equal(t, f.engine.dumps[0], result.PreRestoreSnapshot)

	require.NotNil(t, result.Report)
	assert.Equal(t, 12, result.Report.TableCount)
	assert.Equal(t, 4, result.Report.RLSEnabledCount)
}

func TestSnapshotFailureDoesNotBlockRestore(t *testing.T) {
	dir := t.TempDir()
	dbPath := writeDBArtifact(t, dir, "SELECT 1;", false)

	f := newFixture(t, testConfig(""))
	f.engine.dumpErr = errors.New("database is empty")

	result, err := f.svc.Run(context.Background(), domain.RestoreRequest{
		DatabaseArtifact: dbPath,
		ForceConfirmed:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RestoreCompleted, result.Status)
	assert.Empty(t, result.PreRestoreSnapshot)
	require.Len(t, f.engine.restored, 1)
}

func TestEncryptedArtifactWithoutPassphraseFails(t *testing.T) {
	dir := t.TempDir()
	dbPath := writeDBArtifact(t, dir, "SELECT 1;", true)

	f := newFixture(t, testConfig(""))
	result, err := f.svc.Run(context.Background(), domain.RestoreRequest{
		DatabaseArtifact: dbPath,
		ForceConfirmed:   true,
	})
	require.ErrorIs(t, err, domain.ErrDecryptionFailed)
	assert.Equal(t, domain.RestoreFailed, result.Status)
	assert.Empty(t, f.engine.restored)
}

func TestEncryptedArtifactIsDecryptedToWorkspace(t *testing.T) {
	dir := t.TempDir()
	dbPath := writeDBArtifact(t, dir, "SELECT 2;", true)

	f := newFixture(t, testConfig(""))
	f.cipher.enabled = true

	result, err := f.svc.Run(context.Background(), domain.RestoreRequest{
		DatabaseArtifact: dbPath,
		ForceConfirmed:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RestoreCompleted, result.Status)
	require.Len(t, f.engine.restored, 1)
	assert.Equal(t, "SELECT 2;", f.engine.restored[0])

	// The encrypted original is untouched.
	_, statErr := os.Stat(dbPath)
	assert.NoError(t, statErr)
}

func TestCorruptArtifactFailsBeforeRestore(t *testing.T) {
	dir := t.TempDir()
	name := domain.ArtifactName(domain.KindDatabase, time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("not gzip"), 0o600))

	f := newFixture(t, testConfig(""))
	result, err := f.svc.Run(context.Background(), domain.RestoreRequest{
		DatabaseArtifact: path,
		ForceConfirmed:   true,
	})
	require.Error(t, err)
	assert.Equal(t, domain.RestoreFailed, result.Status)
	assert.Empty(t, f.engine.restored)
}

func TestEngineFailureDirectsOperatorToSnapshot(t *testing.T) {
	dir := t.TempDir()
	dbPath := writeDBArtifact(t, dir, "SELECT 1;", false)

	f := newFixture(t, testConfig(""))
	f.engine.restoreErr = errors.New("server closed the connection unexpectedly")

	result, err := f.svc.Run(context.Background(), domain.RestoreRequest{
		DatabaseArtifact: dbPath,
		ForceConfirmed:   true,
	})
	require.ErrorIs(t, err, domain.ErrRestoreEngine)
	assert.Equal(t, domain.RestoreFailed, result.Status)
	assert.NotEmpty(t, result.PreRestoreSnapshot)
}

func TestMediaRestoreSnapshotsThenExtracts(t *testing.T) {
	dir := t.TempDir()
	mediaDir := t.TempDir()
	dbPath := writeDBArtifact(t, dir, "SELECT 1;", false)

	mediaPath := filepath.Join(dir, "media_20260825_143000.tar.gz")
	require.NoError(t, os.WriteFile(mediaPath, []byte("archive"), 0o600))

	f := newFixture(t, testConfig(mediaDir))
	result, err := f.svc.Run(context.Background(), domain.RestoreRequest{
		DatabaseArtifact: dbPath,
		MediaArtifact:    mediaPath,
		ForceConfirmed:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RestoreCompleted, result.Status)

	// Live media tree was snapshotted before extraction over it.
	require.Len(t, f.media.archives, 1)
	require.Len(t, f.media.extracts, 1)
	assert.Equal(t, mediaPath, f.media.extracts[0][0])
	assert.Equal(t, mediaDir, f.media.extracts[0][1])
}

func TestMediaExtractFailureDoesNotFailCommittedRestore(t *testing.T) {
	dir := t.TempDir()
	dbPath := writeDBArtifact(t, dir, "SELECT 1;", false)
	mediaPath := filepath.Join(dir, "media_20260825_143000.tar.gz")
	require.NoError(t, os.WriteFile(mediaPath, []byte("archive"), 0o600))

	f := newFixture(t, testConfig(t.TempDir()))
	f.media.extractErr = errors.New("short read")

	result, err := f.svc.Run(context.Background(), domain.RestoreRequest{
		DatabaseArtifact: dbPath,
		MediaArtifact:    mediaPath,
		ForceConfirmed:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RestoreCompleted, result.Status)
}

func TestVerificationFailureIsDiagnosticOnly(t *testing.T) {
	dir := t.TempDir()
	dbPath := writeDBArtifact(t, dir, "SELECT 1;", false)

	f := newFixture(t, testConfig(""))
	f.engine.verifyErr = errors.New("connection reset")

	result, err := f.svc.Run(context.Background(), domain.RestoreRequest{
		DatabaseArtifact: dbPath,
		ForceConfirmed:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RestoreCompleted, result.Status)
	assert.Nil(t, result.Report)
}

func TestLockContentionFailsCleanly(t *testing.T) {
	f := newFixture(t, testConfig(""))
	f.lock.acquireErr = domain.ErrLockHeld

	_, err := f.svc.Run(context.Background(), domain.RestoreRequest{
		DatabaseArtifact: "/backups/db_20260825_143000.sql.gz",
		ForceConfirmed:   true,
	})
	require.ErrorIs(t, err, domain.ErrLockHeld)
}
