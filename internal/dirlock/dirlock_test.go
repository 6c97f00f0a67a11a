package dirlock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_TryLockBusy(t *testing.T) {
	l := New()
	dir := t.TempDir()

	unlock, err := l.TryLock(dir)
	require.NoError(t, err)

	_, err = l.TryLock(filepath.Join(dir, "sub", ".."))
	assert.ErrorIs(t, err, ErrBusy)

	unlock()
	unlock() // second call is a no-op

	again, err := l.TryLock(dir)
	require.NoError(t, err)
	again()
}

func TestLocker_IndependentDirs(t *testing.T) {
	l := New()

	a, err := l.TryLock(t.TempDir())
	require.NoError(t, err)
	defer a()

	b, err := l.TryLock(t.TempDir())
	require.NoError(t, err)
	b()
}

func TestLocker_LockWaitsForRelease(t *testing.T) {
	l := New()
	dir := t.TempDir()

	unlock, err := l.Lock(context.Background(), dir)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		u, err := l.Lock(context.Background(), dir)
		if err == nil {
			u()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock should block")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second Lock never acquired")
	}
}

func TestLocker_LockHonorsContext(t *testing.T) {
	l := New()
	dir := t.TempDir()

	unlock, err := l.Lock(context.Background(), dir)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, dir)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
