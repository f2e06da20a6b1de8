// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRenameLockMutualExclusion(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	// Each goroutine opens its own descriptor, so the advisory locks
	// conflict just as they would across processes.
	const workers = 6
	var active, overlaps int32
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock, err := acquireRenameLock(dir, logger)
			if err != nil {
				t.Errorf("acquireRenameLock failed: %v", err)
				return
			}
			if atomic.AddInt32(&active, 1) > 1 {
				atomic.AddInt32(&overlaps, 1)
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			lock.Release()
		}()
	}
	wg.Wait()

	if overlaps != 0 {
		t.Errorf("%d goroutines were inside the critical section concurrently", overlaps)
	}
}

func TestRenameLockMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "absent")
	logger := slog.New(slog.DiscardHandler)

	_, err := acquireRenameLock(dir, logger)
	if err == nil {
		t.Fatal("acquireRenameLock succeeded in a missing directory")
	}
	if !errors.Is(err, ErrLockFailed) {
		t.Errorf("error = %v, want ErrLockFailed in the chain", err)
	}
}

func TestRenameLockReleaseIdempotent(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	lock, err := acquireRenameLock(dir, logger)
	if err != nil {
		t.Fatalf("acquireRenameLock failed: %v", err)
	}
	lock.Release()
	lock.Release() // must be a no-op

	// The lock file persists after release; only its lock state matters.
	if _, err := os.Stat(filepath.Join(dir, lockFileName)); err != nil {
		t.Errorf("lock file missing after release: %v", err)
	}

	// Reacquisition must succeed immediately once released.
	lock2, err := acquireRenameLock(dir, logger)
	if err != nil {
		t.Fatalf("reacquisition failed: %v", err)
	}
	lock2.Release()
}
