// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Prepare ensures the cache directory exists and purges entries that do not
// belong to the current source package version: any direct child whose name
// lacks currentPrefix, or whose modification time is strictly older than the
// freshness threshold, is deleted.
//
// Directory creation failure (or a non-directory occupying the path) is
// fatal. Cleanup is best effort: deletion failures are logged and a stale
// file left behind is harmless, since the prefix/timestamp checks make
// future passes ignore it. If the directory cannot be listed at all, cleanup
// is skipped without failing the caller.
func (e *Extractor) Prepare(dir, currentPrefix string, freshness time.Time) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory %s: %w", dir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat cache directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cache path %s is not a directory", dir)
	}

	children, err := os.ReadDir(dir)
	if err != nil {
		e.log.Warn("failed to list cache directory, skipping cleanup", "dir", dir, "error", err)
		return nil
	}

	for _, child := range children {
		name := child.Name()
		if name == lockFileName {
			// The lock file persists for the life of the cache directory.
			continue
		}

		stale := !strings.HasPrefix(name, currentPrefix)
		if !stale {
			childInfo, err := child.Info()
			if err != nil {
				e.log.Warn("failed to stat cache entry", "name", name, "error", err)
				continue
			}
			stale = childInfo.ModTime().Before(freshness)
		}
		if !stale {
			continue
		}

		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			e.log.Warn("failed to delete old cache file", "path", path, "error", err)
		}
	}

	return nil
}

// Evict removes every cache file belonging to the given source package and
// returns how many were deleted. A missing cache directory is not an error.
// Individual deletion failures are logged and skipped, matching Prepare's
// best-effort cleanup.
func (e *Extractor) Evict(cacheDir, sourcePath string) (int, error) {
	prefix := CachePrefix(sourcePath)

	children, err := os.ReadDir(cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("list cache directory %s: %w", cacheDir, err)
	}

	removed := 0
	for _, child := range children {
		if !strings.HasPrefix(child.Name(), prefix) {
			continue
		}
		path := filepath.Join(cacheDir, child.Name())
		if err := os.Remove(path); err != nil {
			e.log.Warn("failed to delete cache file", "path", path, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
