package out

import "context"

// MediaArchiver packs and unpacks the unstructured media tree.
type MediaArchiver interface {
	// Archive writes srcDir as a compressed archive to destPath. Returns
	// domain.ErrMediaDirMissing when srcDir does not exist.
	Archive(ctx context.Context, srcDir, destPath string) error

	// Extract unpacks archivePath over destDir, overwriting in place.
	Extract(ctx context.Context, archivePath, destDir string) error
}
