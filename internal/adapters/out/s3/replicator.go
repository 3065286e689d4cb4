// Package s3 replicates the local backup root to an S3-compatible bucket.
package s3

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bnema/lifeboat/internal/boundaries/out"
	"github.com/bnema/lifeboat/internal/config"
)

// Replicator mirrors backup artifacts to offsite object storage. Keys are
// the paths relative to the backup root, so the bucket layout matches the
// local one and re-uploads are idempotent overwrites.
type Replicator struct {
	client *minio.Client
	bucket string
	log    *log.Logger
}

// New builds a replicator against the configured endpoint.
func New(cfg config.S3Config, logger *log.Logger) (*Replicator, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return &Replicator{client: client, bucket: cfg.Bucket, log: logger}, nil
}

var _ out.Replicator = (*Replicator)(nil)

// Sync uploads every artifact and log under rootDir to the bucket. Partial
// progress counts; the first upload error aborts the walk.
func (r *Replicator) Sync(ctx context.Context, rootDir string) (int, error) {
	uploaded := 0
	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !replicable(info.Name()) {
			return nil
		}

		rel, err := filepath.Rel(rootDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)

		if _, err := r.client.FPutObject(ctx, r.bucket, key, path, minio.PutObjectOptions{
			ContentType: "application/octet-stream",
		}); err != nil {
			return fmt.Errorf("failed to upload %q: %w", key, err)
		}

		r.log.Debug("replicated artifact", "key", key, "size", info.Size())
		uploaded++
		return nil
	})
	return uploaded, err
}

// replicable filters out transient files that live in the backup root but
// have no business offsite.
func replicable(name string) bool {
	switch {
	case strings.HasSuffix(name, ".tmp"):
		return false
	case strings.HasSuffix(name, ".lock"):
		return false
	}
	return true
}
