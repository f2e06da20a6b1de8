// SPDX-License-Identifier: MPL-2.0

// Package extractor implements the secondary dex archive extraction engine.
//
// An application package that exceeds the runtime loader's method reference
// limit ships its additional code as secondary archives (classes2.dex,
// classes3.dex, ...) inside the package zip. The loader cannot consume raw
// zip entries, so each secondary archive is repackaged into a standalone
// single-entry zip container in a private cache directory, exactly once per
// package version.
//
// The engine is safe under repeated and concurrent invocation: cache files
// are produced via temp-file + rename, the check-then-rename step is guarded
// by a cross-process advisory lock, and a freshly written container is
// verified before it is accepted. The source package's last-modified
// timestamp is the sole staleness signal; when it advances, the next Load
// purges and rebuilds the cache.
package extractor

import (
	"archive/zip"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var (
	// ErrRetryExhausted marks a Load failure where a secondary archive kept
	// failing extraction or verification until the attempt bound ran out.
	ErrRetryExhausted = errors.New("extraction retry bound exhausted")

	// ErrLockFailed marks a failure to open or lock the cache directory's
	// well-known lock file.
	ErrLockFailed = errors.New("cache lock unavailable")
)

const (
	// Secondary archives inside the source package are named classes2.dex,
	// classes3.dex, etc. Discovery probes sequential indices starting at 2
	// and stops at the first absent one.
	dexPrefix = "classes"
	dexSuffix = ".dex"

	// ExtractedNameExt joins the source package file name and the secondary
	// index to form the cache file name: <source>.classes<N>.zip.
	ExtractedNameExt = ".classes"
	// ExtractedSuffix is the cache file extension.
	ExtractedSuffix = ".zip"

	// firstSecondaryIndex is where probing starts; the primary archive
	// (classes.dex) is loaded by the runtime itself and never extracted.
	firstSecondaryIndex = 2

	// defaultMaxAttempts bounds the per-entry extract+verify retry loop.
	defaultMaxAttempts = 3
)

// Options configures an Extractor. The zero value is usable: it logs through
// slog.Default() and retries each entry up to three times.
type Options struct {
	// Logger receives the engine's diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
	// MaxAttempts bounds the extract+verify retry loop per secondary
	// archive. Values below 1 fall back to the default of 3.
	MaxAttempts int
}

// Extractor extracts secondary dex archives from a source package into a
// cache directory. It is stateless apart from its configuration and safe for
// use from multiple goroutines; cross-process safety comes from the rename
// lock, not from the Extractor itself.
type Extractor struct {
	log         *slog.Logger
	maxAttempts int

	// verifyFn overrides Verify when non-nil. Tests use it to exercise the
	// retry bound without corrupting real archives.
	verifyFn func(path string) bool
}

// New creates an Extractor with the given options.
func New(opts Options) *Extractor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attempts := opts.MaxAttempts
	if attempts < 1 {
		attempts = defaultMaxAttempts
	}
	return &Extractor{log: logger, maxAttempts: attempts}
}

// CachePrefix returns the version-qualified prefix shared by all cache files
// of the given source package. Files in the cache directory that do not
// carry the current prefix belong to another package (or an older install
// path) and are purged by Prepare.
func CachePrefix(sourcePath string) string {
	return filepath.Base(sourcePath) + ExtractedNameExt
}

// secondaryEntryName returns the source entry name for a secondary index,
// e.g. "classes2.dex" for index 2.
func secondaryEntryName(index int) string {
	return dexPrefix + strconv.Itoa(index) + dexSuffix
}

// EntryInfo describes one secondary archive entry found in a source package.
type EntryInfo struct {
	// Index is the secondary archive number (2, 3, ...).
	Index int
	// Name is the entry name inside the source package, e.g. "classes2.dex".
	Name string
	// UncompressedSize is the entry's decompressed size in bytes.
	UncompressedSize uint64
	// Modified is the entry's modification time as recorded in the archive.
	Modified time.Time
}

// Load extracts the source package's secondary archives into cacheDir and
// returns the ordered list of cache file paths. It stats the source package
// for the last-modified timestamp used as the freshness signal; use LoadAt
// to supply the timestamp explicitly.
func (e *Extractor) Load(sourcePath, cacheDir string) ([]string, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("stat source package: %w", err)
	}
	return e.LoadAt(sourcePath, info.ModTime(), cacheDir)
}

// LoadAt extracts the source package's secondary archives into cacheDir,
// treating sourceModTime as the package version's freshness threshold.
//
// The returned paths are in ascending secondary index order and include
// every discovered entry whether or not extraction ran for it on this call.
// An empty list is a valid result: the package simply has no secondary
// archives. LoadAt fails if the cache directory cannot be prepared, the
// source package cannot be opened, or any entry exhausts its extract+verify
// retry bound; partial extraction is never returned as success.
func (e *Extractor) LoadAt(sourcePath string, sourceModTime time.Time, cacheDir string) ([]string, error) {
	prefix := CachePrefix(sourcePath)

	if err := e.Prepare(cacheDir, prefix, sourceModTime); err != nil {
		return nil, err
	}

	src, err := zip.OpenReader(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("open source package %s: %w", sourcePath, err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			e.log.Warn("failed to close source package", "path", sourcePath, "error", cerr)
		}
	}()

	entries := entryIndex(&src.Reader)

	files := []string{}
	for index := firstSecondaryIndex; ; index++ {
		entry, ok := entries[secondaryEntryName(index)]
		if !ok {
			// First absent index is the normal termination condition.
			break
		}

		target := filepath.Join(cacheDir, prefix+strconv.Itoa(index)+ExtractedSuffix)
		files = append(files, target)

		if isRegularFile(target) {
			// Survived the Prepare purge, so it matches the current
			// package version.
			continue
		}

		if err := e.extractWithRetry(entry, target, prefix, sourceModTime, index); err != nil {
			return nil, err
		}
	}

	return files, nil
}

// SecondaryEntries enumerates the contiguous run of secondary archive
// entries in the source package without extracting anything. The run starts
// at index 2 and ends at the first absent index, mirroring Load's discovery.
func (e *Extractor) SecondaryEntries(sourcePath string) ([]EntryInfo, error) {
	src, err := zip.OpenReader(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("open source package %s: %w", sourcePath, err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			e.log.Warn("failed to close source package", "path", sourcePath, "error", cerr)
		}
	}()

	entries := entryIndex(&src.Reader)

	var infos []EntryInfo
	for index := firstSecondaryIndex; ; index++ {
		f, ok := entries[secondaryEntryName(index)]
		if !ok {
			break
		}
		infos = append(infos, EntryInfo{
			Index:            index,
			Name:             f.Name,
			UncompressedSize: f.UncompressedSize64,
			Modified:         f.Modified,
		})
	}
	return infos, nil
}

// extractWithRetry produces and verifies one cache file, retrying up to the
// configured bound. Exhausting the bound is fatal for the whole Load.
func (e *Extractor) extractWithRetry(entry *zip.File, target, prefix string, sourceModTime time.Time, index int) error {
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if err := e.repack(entry, target, prefix, sourceModTime); err != nil {
			e.log.Warn("extraction attempt failed",
				"target", target, "attempt", attempt, "error", err)
			continue
		}

		ok := e.verifyTarget(target)
		e.log.Info("extraction finished",
			"target", target, "attempt", attempt, "success", ok,
			"sha1", Fingerprint(target))
		if ok {
			return nil
		}

		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			e.log.Warn("failed to delete corrupt cache file", "target", target, "error", err)
		}
	}
	return fmt.Errorf("could not create cache file %s for secondary archive %d after %d attempts: %w",
		target, index, e.maxAttempts, ErrRetryExhausted)
}

// verifyTarget dispatches to the verifyFn override when set.
func (e *Extractor) verifyTarget(path string) bool {
	if e.verifyFn != nil {
		return e.verifyFn(path)
	}
	return e.Verify(path)
}

// entryIndex builds a name lookup over the archive's entries. Discovery still
// probes names sequentially; the map only replaces a linear scan per probe.
func entryIndex(r *zip.Reader) map[string]*zip.File {
	entries := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		entries[f.Name] = f
	}
	return entries
}

// isRegularFile reports whether path exists and is a regular file.
func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
