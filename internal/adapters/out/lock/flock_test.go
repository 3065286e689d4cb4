package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/lifeboat/internal/domain"
)

func TestAcquireAndRelease(t *testing.T) {
	l := New(t.TempDir())

	release, err := l.Acquire()
	require.NoError(t, err)
	release()

	// Released lock can be re-acquired.
	release, err = l.Acquire()
	require.NoError(t, err)
	release()
}

func TestAcquireFailsWhileHeld(t *testing.T) {
	dir := t.TempDir()

	release, err := New(dir).Acquire()
	require.NoError(t, err)
	defer release()

	_, err = New(dir).Acquire()
	assert.ErrorIs(t, err, domain.ErrLockHeld)
}
