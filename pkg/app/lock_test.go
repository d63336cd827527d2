package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockStoreExcludesSecondWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etymoagent.db")

	release, err := lockStore(context.Background(), path, time.Second)
	require.NoError(t, err)

	_, err = lockStore(context.Background(), path, 0)
	assert.ErrorIs(t, err, ErrStoreBusy)

	release()
	again, err := lockStore(context.Background(), path, 0)
	require.NoError(t, err)
	again()
}

func TestLockStoreHonorsContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etymoagent.db")
	release, err := lockStore(context.Background(), path, time.Second)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = lockStore(ctx, path, time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLockStoreInMemory(t *testing.T) {
	release, err := lockStore(context.Background(), ":memory:", 0)
	require.NoError(t, err)
	release()
}
