// SPDX-License-Identifier: MPL-2.0

//go:build unix

package extractor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// lockFileName is the well-known lock file shared by every process
// populating the same cache directory. The zero-byte file itself is
// harmless and persists indefinitely; only its lock state matters, and the
// kernel releases the flock automatically when the holding fd is closed,
// including on process crash.
const lockFileName = "dexcache.lock"

// renameLock holds a blocking exclusive flock on the cache directory's
// well-known lock file, serializing the check-then-rename step across all
// processes and threads racing to populate the same cache file.
type renameLock struct {
	file *os.File
	log  *slog.Logger
}

// acquireRenameLock opens (or creates) the lock file in dir and acquires a
// blocking exclusive flock. The call blocks until the lock is available;
// there is no timeout.
func acquireRenameLock(dir string, log *slog.Logger) (*renameLock, error) {
	path := filepath.Join(dir, lockFileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: open lock file %s: %w", ErrLockFailed, path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: flock %s: %w", ErrLockFailed, path, err)
	}

	return &renameLock{file: f, log: log}, nil
}

// Release unlocks the flock and closes the file descriptor. Calling it more
// than once is a no-op.
func (l *renameLock) Release() {
	if l == nil || l.file == nil {
		return
	}
	// LOCK_UN before Close for explicitness; Close also releases the flock.
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		l.log.Debug("flock unlock failed", "error", err)
	}
	if err := l.file.Close(); err != nil {
		l.log.Debug("lock file close failed", "error", err)
	}
	l.file = nil
}
