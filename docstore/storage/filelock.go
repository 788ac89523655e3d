package storage

import (
	"context"
	"time"

	"github.com/gofrs/flock"
)

// FileLock guards the backing file against concurrent access from other
// processes. A separate .lock file is used so the data file itself can be
// replaced atomically.
type FileLock interface {
	// TryLockContext attempts to acquire an exclusive lock, retrying at
	// the given interval until the context is done.
	TryLockContext(ctx context.Context, retryInterval time.Duration) (bool, error)

	Unlock() error
}

// FileLockFactory creates FileLock instances for a lock file path.
type FileLockFactory interface {
	New(path string) FileLock
}

type flockWrapper struct {
	fl *flock.Flock
}

func (w *flockWrapper) TryLockContext(ctx context.Context, retryInterval time.Duration) (bool, error) {
	return w.fl.TryLockContext(ctx, retryInterval)
}

func (w *flockWrapper) Unlock() error {
	return w.fl.Unlock()
}

// FlockFactory is the default factory, backed by github.com/gofrs/flock.
type FlockFactory struct{}

func (FlockFactory) New(path string) FileLock {
	return &flockWrapper{fl: flock.New(path)}
}
