package out

import "context"

// Cipher wraps artifacts with symmetric passphrase encryption. A cipher
// without a configured passphrase is a transparent no-op on the encrypt
// side and a hard failure on the decrypt side.
type Cipher interface {
	// Enabled reports whether a passphrase is configured.
	Enabled() bool

	// Encrypt replaces the plaintext file at path with its encrypted
	// sibling and returns the new path. The plaintext is deleted only
	// after the ciphertext write succeeds. Without a passphrase the path
	// is returned unchanged.
	Encrypt(ctx context.Context, path string) (string, error)

	// DecryptTo writes the decrypted content of src to dest, preserving
	// src. Missing or mismatched passphrase yields
	// domain.ErrDecryptionFailed.
	DecryptTo(ctx context.Context, src, dest string) error
}
