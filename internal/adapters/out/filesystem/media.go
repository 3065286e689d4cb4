package filesystem

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/bnema/lifeboat/internal/boundaries/out"
	"github.com/bnema/lifeboat/internal/domain"
)

// MediaArchiver packs the media tree into a tar.gz artifact and extracts it
// back over a live root.
type MediaArchiver struct {
	log *log.Logger
}

// NewMediaArchiver creates a media archiver.
func NewMediaArchiver(logger *log.Logger) *MediaArchiver {
	return &MediaArchiver{log: logger}
}

var _ out.MediaArchiver = (*MediaArchiver)(nil)

// Archive writes srcDir as a tar.gz to destPath via a temp file so a failed
// archive never leaves a half-written artifact behind. A missing srcDir is
// a skip, not an error.
func (m *MediaArchiver) Archive(_ context.Context, srcDir, destPath string) error {
	info, err := os.Stat(srcDir)
	if os.IsNotExist(err) {
		return domain.ErrMediaDirMissing
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("media path %q is not a directory", srcDir)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}

	zw, err := gzip.NewWriterLevel(f, gzip.BestCompression)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	tw := tar.NewWriter(zw)

	walkErr := filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()

		_, err = io.Copy(tw, src)
		return err
	})

	closeErr := firstErr(tw.Close(), zw.Close(), f.Close())
	if walkErr == nil {
		walkErr = closeErr
	}
	if walkErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to archive %q: %w", srcDir, walkErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

// Extract unpacks archivePath over destDir, overwriting existing files in
// place. Entries escaping destDir are rejected.
func (m *MediaArchiver) Extract(_ context.Context, archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	defer zr.Close()

	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return err
	}

	tr := tar.NewReader(zr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}

		target := filepath.Join(destDir, filepath.FromSlash(header.Name))
		if !pathWithinRoot(destDir, target) {
			return fmt.Errorf("archive entry %q escapes destination", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode)); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
				return err
			}
			dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(dst, tr); err != nil {
				_ = dst.Close()
				return err
			}
			if err := dst.Close(); err != nil {
				return err
			}
		default:
			m.log.Debug("skipping unsupported archive entry", "name", header.Name, "type", header.Typeflag)
		}
	}
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
