// Package dirlock serializes operations that mutate the same directory.
package dirlock

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrBusy is returned by TryLock when another operation holds the directory.
var ErrBusy = errors.New("directory is busy")

// Locker hands out one exclusive lock per directory. Paths are cleaned and
// made absolute so "a/./b" and "a/b" share a lock.
type Locker struct {
	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

// New creates an empty Locker.
func New() *Locker {
	return &Locker{sems: make(map[string]*semaphore.Weighted)}
}

// Lock blocks until dir is free or ctx is done. The returned func releases
// the lock and is safe to call more than once.
func (l *Locker) Lock(ctx context.Context, dir string) (func(), error) {
	sem, err := l.get(dir)
	if err != nil {
		return nil, err
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return releaser(sem), nil
}

// TryLock acquires dir without waiting.
func (l *Locker) TryLock(dir string) (func(), error) {
	sem, err := l.get(dir)
	if err != nil {
		return nil, err
	}
	if !sem.TryAcquire(1) {
		return nil, fmt.Errorf("%w: %s", ErrBusy, dir)
	}
	return releaser(sem), nil
}

func (l *Locker) get(dir string) (*semaphore.Weighted, error) {
	key, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	sem, ok := l.sems[key]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.sems[key] = sem
	}
	return sem, nil
}

func releaser(sem *semaphore.Weighted) func() {
	var once sync.Once
	return func() {
		once.Do(func() { sem.Release(1) })
	}
}
