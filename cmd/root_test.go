package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["backup"])
	assert.True(t, names["restore"])
	assert.True(t, names["version"])
}

func TestBackupFlags(t *testing.T) {
	require.NotNil(t, backupCmd.Flags().Lookup("db-only"))
	require.NotNil(t, backupCmd.Flags().Lookup("media-only"))
}

func TestRestoreAcceptsOneOrTwoArtifacts(t *testing.T) {
	assert.Error(t, restoreCmd.Args(restoreCmd, nil))
	assert.NoError(t, restoreCmd.Args(restoreCmd, []string{"db_20260825_143000.sql.gz"}))
	assert.NoError(t, restoreCmd.Args(restoreCmd, []string{"a", "b"}))
	assert.Error(t, restoreCmd.Args(restoreCmd, []string{"a", "b", "c"}))
}

func TestResolveArtifact(t *testing.T) {
	assert.Equal(t,
		filepath.Join("/backups", "db_20260825_143000.sql.gz"),
		resolveArtifact("/backups", "db_20260825_143000.sql.gz"))

	// Explicit paths pass through untouched.
	assert.Equal(t, "/mnt/usb/db_20260825_143000.sql.gz",
		resolveArtifact("/backups", "/mnt/usb/db_20260825_143000.sql.gz"))
	assert.Equal(t, "sub/db_20260825_143000.sql.gz",
		resolveArtifact("/backups", "sub/db_20260825_143000.sql.gz"))
}
