package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexLock_LockUnlock(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	l := NewIndexLock(dir)

	require.NoError(t, l.Lock(context.Background()))
	assert.FileExists(t, l.Path())
	assert.Equal(t, filepath.Join(dir, ".index.lock"), l.Path())

	require.NoError(t, l.Unlock())
	require.NoError(t, l.Unlock(), "unlock is idempotent")
}

func TestIndexLock_SecondHolderIsExcluded(t *testing.T) {
	dir := t.TempDir()
	first := NewIndexLock(dir)
	require.NoError(t, first.Lock(context.Background()))
	defer first.Unlock()

	second := NewIndexLock(dir)
	acquired, err := second.TryLock()
	require.NoError(t, err)
	assert.False(t, acquired)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.Error(t, second.Lock(ctx))
}

func TestIndexLock_ReleasedLockCanBeTaken(t *testing.T) {
	dir := t.TempDir()
	first := NewIndexLock(dir)
	require.NoError(t, first.Lock(context.Background()))
	require.NoError(t, first.Unlock())

	second := NewIndexLock(dir)
	acquired, err := second.TryLock()
	require.NoError(t, err)
	assert.True(t, acquired)
	require.NoError(t, second.Unlock())
}
