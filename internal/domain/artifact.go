package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ArtifactKind identifies what a backup artifact contains.
type ArtifactKind string

const (
	KindDatabase ArtifactKind = "db"
	KindMedia    ArtifactKind = "media"
)

// EncryptionSuffix is layered on top of a compressed artifact name when the
// file has been passphrase-encrypted. Stripping it yields the plaintext name.
const EncryptionSuffix = ".age"

const artifactTimeLayout = "20060102_150405"

// Extension returns the compressed file extension for the kind.
func (k ArtifactKind) Extension() string {
	switch k {
	case KindDatabase:
		return ".sql.gz"
	case KindMedia:
		return ".tar.gz"
	default:
		return ""
	}
}

// Artifact is one durable backup unit on local storage.
type Artifact struct {
	Kind       ArtifactKind
	Timestamp  time.Time
	Path       string
	Compressed bool
	Encrypted  bool
}

// Name returns the canonical file name for the artifact.
func (a Artifact) Name() string {
	name := ArtifactName(a.Kind, a.Timestamp)
	if a.Encrypted {
		name += EncryptionSuffix
	}
	return name
}

// ArtifactName builds the canonical compressed artifact name for a kind and
// creation instant. Timestamps are truncated to second precision in UTC.
func ArtifactName(kind ArtifactKind, t time.Time) string {
	return fmt.Sprintf("%s_%s%s", kind, t.UTC().Format(artifactTimeLayout), kind.Extension())
}

// ParseArtifactName parses a file name (or path) back into an Artifact.
// It round-trips ArtifactName, with and without the encryption suffix.
func ParseArtifactName(name string) (Artifact, error) {
	base := filepath.Base(name)

	encrypted := strings.HasSuffix(base, EncryptionSuffix)
	trimmed := strings.TrimSuffix(base, EncryptionSuffix)

	var kind ArtifactKind
	switch {
	case strings.HasPrefix(trimmed, string(KindDatabase)+"_") && strings.HasSuffix(trimmed, KindDatabase.Extension()):
		kind = KindDatabase
	case strings.HasPrefix(trimmed, string(KindMedia)+"_") && strings.HasSuffix(trimmed, KindMedia.Extension()):
		kind = KindMedia
	default:
		return Artifact{}, fmt.Errorf("unrecognized artifact name %q", base)
	}

	stamp := strings.TrimSuffix(strings.TrimPrefix(trimmed, string(kind)+"_"), kind.Extension())
	ts, err := time.ParseInLocation(artifactTimeLayout, stamp, time.UTC)
	if err != nil {
		return Artifact{}, fmt.Errorf("invalid artifact timestamp %q: %w", stamp, err)
	}

	return Artifact{
		Kind:       kind,
		Timestamp:  ts,
		Path:       name,
		Compressed: true,
		Encrypted:  encrypted,
	}, nil
}
