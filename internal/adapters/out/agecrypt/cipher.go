// Package agecrypt wraps backup artifacts with age passphrase encryption
// (scrypt recipient, authenticated payload). With no passphrase configured
// the cipher is a transparent pass-through on the encrypt side and a hard
// failure on the decrypt side.
package agecrypt

import (
	"context"
	"fmt"
	"io"
	"os"

	"filippo.io/age"

	"github.com/bnema/lifeboat/internal/boundaries/out"
	"github.com/bnema/lifeboat/internal/domain"
)

// Cipher implements out.Cipher with a symmetric passphrase.
type Cipher struct {
	passphrase string
}

// New creates a cipher. An empty passphrase disables encryption.
func New(passphrase string) *Cipher {
	return &Cipher{passphrase: passphrase}
}

var _ out.Cipher = (*Cipher)(nil)

// Enabled reports whether a passphrase is configured.
func (c *Cipher) Enabled() bool { return c.passphrase != "" }

// Encrypt replaces the plaintext file at path with an encrypted sibling
// carrying the encryption suffix. The plaintext is removed only once the
// ciphertext is fully written and closed.
func (c *Cipher) Encrypt(_ context.Context, path string) (string, error) {
	if !c.Enabled() {
		return path, nil
	}

	recipient, err := age.NewScryptRecipient(c.passphrase)
	if err != nil {
		return "", fmt.Errorf("invalid passphrase: %w", err)
	}

	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	encPath := path + domain.EncryptionSuffix
	tmpPath := encPath + ".tmp"

	dst, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return "", err
	}

	w, err := age.Encrypt(dst, recipient)
	if err != nil {
		_ = dst.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}

	if _, err := io.Copy(w, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	// The age writer must be closed before the file to flush the final
	// authenticated chunk.
	if err := w.Close(); err != nil {
		_ = dst.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}

	if err := os.Rename(tmpPath, encPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}

	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("ciphertext written but plaintext removal failed: %w", err)
	}
	return encPath, nil
}

// DecryptTo writes the decrypted content of src to dest, leaving src
// untouched. A missing or wrong passphrase yields ErrDecryptionFailed.
func (c *Cipher) DecryptTo(_ context.Context, src, dest string) error {
	if !c.Enabled() {
		return fmt.Errorf("%w: no passphrase configured", domain.ErrDecryptionFailed)
	}

	identity, err := age.NewScryptIdentity(c.passphrase)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrDecryptionFailed, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	r, err := age.Decrypt(in, identity)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrDecryptionFailed, err)
	}

	dst, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, r); err != nil {
		_ = dst.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("%w: %s", domain.ErrDecryptionFailed, err)
	}
	return dst.Close()
}
