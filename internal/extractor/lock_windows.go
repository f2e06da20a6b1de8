// SPDX-License-Identifier: MPL-2.0

//go:build windows

package extractor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

// lockFileName is the well-known lock file shared by every process
// populating the same cache directory. Only its lock state matters; the OS
// releases the lock when the holding handle is closed, including on process
// crash.
const lockFileName = "dexcache.lock"

// renameLock holds a blocking exclusive LockFileEx range lock on the cache
// directory's well-known lock file, serializing the check-then-rename step
// across all processes and threads racing to populate the same cache file.
type renameLock struct {
	file *os.File
	log  *slog.Logger
}

// acquireRenameLock opens (or creates) the lock file in dir and acquires a
// blocking exclusive lock on its first byte. The call blocks until the lock
// is available; there is no timeout.
func acquireRenameLock(dir string, log *slog.Logger) (*renameLock, error) {
	path := filepath.Join(dir, lockFileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: open lock file %s: %w", ErrLockFailed, path, err)
	}

	ol := new(windows.Overlapped)
	if err := windows.LockFileEx(windows.Handle(f.Fd()), windows.LOCKFILE_EXCLUSIVE_LOCK, 0, 1, 0, ol); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: lock %s: %w", ErrLockFailed, path, err)
	}

	return &renameLock{file: f, log: log}, nil
}

// Release unlocks the range lock and closes the file handle. Calling it more
// than once is a no-op.
func (l *renameLock) Release() {
	if l == nil || l.file == nil {
		return
	}
	ol := new(windows.Overlapped)
	if err := windows.UnlockFileEx(windows.Handle(l.file.Fd()), 0, 1, 0, ol); err != nil {
		l.log.Debug("lock file unlock failed", "error", err)
	}
	if err := l.file.Close(); err != nil {
		l.log.Debug("lock file close failed", "error", err)
	}
	l.file = nil
}
