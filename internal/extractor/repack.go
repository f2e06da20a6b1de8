// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const (
	// canonicalEntryName is the fixed name of the single entry inside every
	// cache file, regardless of the indexed name it had in the source
	// package. The consuming loader expects exactly this name.
	canonicalEntryName = "classes.dex"

	// copyBufferSize is the stream-copy chunk size.
	copyBufferSize = 0x4000
)

// repack streams one secondary archive entry out of the source package into
// a fresh single-entry zip container at target.
//
// The container is written to a temp file in the target's own directory so
// the final rename stays on one filesystem and is atomic. The entry keeps
// the original entry's modification time, and the finished temp file gets
// the source package's timestamp (best effort) so Prepare can judge its
// freshness. The rename itself happens under the cache directory's rename
// lock; if a concurrent racer already produced the target, its file is
// canonical and the temp file is discarded. The temp file is unconditionally
// removed afterwards, whether or not it became the target.
func (e *Extractor) repack(entry *zip.File, target, prefix string, sourceModTime time.Time) error {
	in, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open source entry %s: %w", entry.Name, err)
	}
	defer func() {
		if cerr := in.Close(); cerr != nil {
			e.log.Warn("failed to close source entry", "entry", entry.Name, "error", cerr)
		}
	}()

	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, prefix+"*"+ExtractedSuffix)
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	e.log.Debug("extracting", "entry", entry.Name, "tmp", tmpPath)
	defer func() {
		// Either the rename consumed the temp file or it is a leftover.
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			e.log.Warn("failed to remove temp file", "path", tmpPath, "error", rmErr)
		}
	}()

	if err := writeSingleEntry(tmp, in, entry.Modified); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file %s: %w", tmpPath, err)
	}

	if err := os.Chtimes(tmpPath, sourceModTime, sourceModTime); err != nil {
		e.log.Error("failed to set cache file time; later updates of the source package may not invalidate it",
			"path", tmpPath, "error", err)
	}

	return e.renameIntoPlace(tmpPath, target)
}

// writeSingleEntry writes a one-entry zip container around the entry
// contents read from src.
func writeSingleEntry(dst io.Writer, src io.Reader, entryModified time.Time) error {
	zw := zip.NewWriter(dst)

	header := &zip.FileHeader{
		Name:   canonicalEntryName,
		Method: zip.Deflate,
	}
	// Keep the original entry time: the loader uses it as a freshness
	// signal independent of filesystem timestamps.
	header.Modified = entryModified

	w, err := zw.CreateHeader(header)
	if err != nil {
		zw.Close()
		return fmt.Errorf("create archive entry: %w", err)
	}

	buf := make([]byte, copyBufferSize)
	if _, err := io.CopyBuffer(w, src, buf); err != nil {
		zw.Close()
		return fmt.Errorf("copy entry contents: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}

// renameIntoPlace publishes the finished temp file as target. Rename is
// atomic per filesystem, but "does the target already exist" is not
// otherwise checkable-and-actable atomically across processes; the advisory
// lock turns the compound check+rename into one critical section.
func (e *Extractor) renameIntoPlace(tmpPath, target string) error {
	lock, err := acquireRenameLock(filepath.Dir(target), e.log)
	if err != nil {
		return err
	}
	defer lock.Release()

	if isRegularFile(target) {
		// A concurrent racer won; whoever wins the rename is canonical.
		e.log.Debug("target already exists, discarding temp file", "target", target)
		return nil
	}

	e.log.Debug("renaming into place", "tmp", tmpPath, "target", target)
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("rename %s to %s: %w", tmpPath, target, err)
	}
	return nil
}
