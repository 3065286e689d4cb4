package agecrypt

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/lifeboat/internal/domain"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db_20260825_143000.sql.gz")
	original := []byte("-- dump payload, not actually gzip\x00\x01\x02")
	require.NoError(t, os.WriteFile(path, original, 0o600))

	cipher := New("correct horse battery staple")

	encPath, err := cipher.Encrypt(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path+domain.EncryptionSuffix, encPath)

	// Plaintext is gone, ciphertext differs from the original.
	assert.NoFileExists(t, path)
	ciphertext, err := os.ReadFile(encPath)
	require.NoError(t, err)
	assert.NotEqual(t, original, ciphertext)

	restored := filepath.Join(dir, "restored.sql.gz")
	require.NoError(t, cipher.DecryptTo(context.Background(), encPath, restored))

	data, err := os.ReadFile(restored)
	require.NoError(t, err)
	assert.Equal(t, original, data)

	// Decryption preserves the ciphertext.
	assert.FileExists(t, encPath)
}

func TestDisabledCipherIsPassThrough(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db_20260825_143000.sql.gz")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o600))

	cipher := New("")
	assert.False(t, cipher.Enabled())

	newPath, err := cipher.Encrypt(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, newPath)
	assert.FileExists(t, path)
}

func TestDecryptWithWrongPassphraseFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db_20260825_143000.sql.gz")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o600))

	encPath, err := New("right").Encrypt(context.Background(), path)
	require.NoError(t, err)

	dest := filepath.Join(dir, "out.sql.gz")
	err = New("wrong").DecryptTo(context.Background(), encPath, dest)
	require.ErrorIs(t, err, domain.ErrDecryptionFailed)
}

func TestDecryptWithoutPassphraseFails(t *testing.T) {
	err := New("").DecryptTo(context.Background(), "whatever", "out")
	require.ErrorIs(t, err, domain.ErrDecryptionFailed)
}

func TestDecryptGarbageFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db_20260825_143000.sql.gz.age")
	require.NoError(t, os.WriteFile(path, []byte("not an age file"), 0o600))

	err := New("pass").DecryptTo(context.Background(), path, filepath.Join(dir, "out"))
	require.ErrorIs(t, err, domain.ErrDecryptionFailed)
}
