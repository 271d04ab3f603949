package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrIndexLocked is returned when another run holds the index lock.
var ErrIndexLocked = errors.New("index directory is locked by another run")

// IndexLock is an exclusive file lock on an index directory.
type IndexLock struct {
	lock *flock.Flock
}

// AcquireLock takes the lock on dir without blocking.
func AcquireLock(dir string) (*IndexLock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, LockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, ErrIndexLocked
	}
	return &IndexLock{lock: lock}, nil
}

// Release drops the lock. Safe to call more than once.
func (l *IndexLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
