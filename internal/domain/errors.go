package domain

import "errors"

// Fatal failure classes of the backup and restore pipelines. Non-fatal
// conditions are expressed as Outcome warnings, not errors.
var (
	// ErrDumpFailed means the database engine could not produce a dump.
	ErrDumpFailed = errors.New("database dump failed")

	// ErrEncryptionFailed means encryption was requested but could not
	// complete. The pipeline must not fall back to plaintext silently.
	ErrEncryptionFailed = errors.New("artifact encryption failed")

	// ErrDecryptionFailed covers a missing or incorrect passphrase on the
	// restore path.
	ErrDecryptionFailed = errors.New("artifact decryption failed")

	// ErrRestoreValidation is returned before any mutation when restore
	// inputs do not check out.
	ErrRestoreValidation = errors.New("restore validation failed")

	// ErrRestoreEngine is a store-level failure during the destructive
	// restore transaction. The pre-restore snapshot is the recovery path.
	ErrRestoreEngine = errors.New("database restore failed")

	// ErrMediaDirMissing signals that the media root does not exist; the
	// media leg is skipped, not failed.
	ErrMediaDirMissing = errors.New("media directory does not exist")

	// ErrLockHeld means another backup or restore run owns the backup root.
	ErrLockHeld = errors.New("another lifeboat run is already active")
)
