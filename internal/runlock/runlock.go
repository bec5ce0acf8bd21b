// Package runlock keeps two delete-enabled runs from working on the same
// root at once. The lock file lives outside the scanned tree so it never
// shows up as a scan result.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the lock for the root.
var ErrLocked = errors.New("another dupfind run is already deleting in this directory")

type Lock struct {
	path string
	lock *flock.Flock
}

// Path derives the lock file for root inside lockDir.
func Path(lockDir, root string) string {
	return filepath.Join(lockDir, fmt.Sprintf("dupfind-%016x.lock", xxhash.Sum64String(filepath.Clean(root))))
}

// Acquire takes the lock for root without blocking.
func Acquire(lockDir, root string) (*Lock, error) {
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	path := Path(lockDir, root)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, path)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock. The file stays behind; unlinking a flock target
// lets a waiting opener lock an orphaned inode.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
