// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"archive/zip"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"os"
)

// Verify reports whether path is structurally a valid zip archive by opening
// its central directory and closing it again. A format error is the expected
// failure mode after an interrupted write and triggers the caller's retry;
// any other I/O error also fails verification but is logged as a distinct
// case.
func (e *Extractor) Verify(path string) bool {
	r, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			e.log.Warn("cache file is not a valid archive", "path", path, "error", err)
		} else {
			e.log.Warn("failed to open cache file for verification", "path", path, "error", err)
		}
		return false
	}
	if err := r.Close(); err != nil {
		e.log.Warn("failed to close cache file after verification", "path", path, "error", err)
		return false
	}
	return true
}

// Fingerprint returns the lowercase SHA-1 hex digest of the file's bytes.
// The digest is recorded in the extraction log line for diagnostics only; it
// never gates acceptance. Read failures degrade to an empty string rather
// than failing the caller.
func Fingerprint(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}
