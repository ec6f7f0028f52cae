package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// LockPath returns the lock file guarding the document stored at path.
func LockPath(path string) string {
	return path + ".lock"
}

// FileLock is an advisory, cross-process lock on a sidecar file.
type FileLock struct {
	path    string
	timeout time.Duration
}

// NewFileLock returns a lock for the document at path. A zero timeout
// waits until ctx is done.
func NewFileLock(path string, timeout time.Duration) *FileLock {
	return &FileLock{path: LockPath(path), timeout: timeout}
}

// Lock blocks until the lock is held, the timeout passes, or ctx is done.
func (l *FileLock) Lock(ctx context.Context) (func() error, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	fl := flock.New(l.path)
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", l.path, err)
	}
	if !locked {
		return nil, fmt.Errorf("acquire lock %s: not acquired", l.path)
	}
	return fl.Unlock, nil
}

// NoopLock satisfies Store.Lock when locking is disabled.
func NoopLock(context.Context) (func() error, error) {
	return func() error { return nil }, nil
}
