// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"dexcache/internal/extractor"
	"dexcache/internal/issue"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2026-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2026-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev fallback", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "dev"
		Commit = "unknown"
		BuildDate = "unknown"

		got := getVersionString()
		want := "dev (built from source)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	t.Run("plain error passes through", func(t *testing.T) {
		t.Parallel()

		err := errors.New("boom")
		if got := formatErrorForDisplay(err, false); got != "boom" {
			t.Errorf("formatErrorForDisplay() = %q, want %q", got, "boom")
		}
	})

	t.Run("actionable error uses Format", func(t *testing.T) {
		t.Parallel()

		err := issue.NewErrorContext().
			WithOperation("extract secondary archives").
			WithResource("/tmp/app.apk").
			WithSuggestion("Check free space").
			BuildError()

		got := formatErrorForDisplay(err, false)
		if !strings.Contains(got, "failed to extract secondary archives") {
			t.Errorf("missing operation in output: %q", got)
		}
		if !strings.Contains(got, "Check free space") {
			t.Errorf("missing suggestion in output: %q", got)
		}
	})
}

func TestExtractErrorClassification(t *testing.T) {
	// Not parallel: extractError renders issue pages to stderr; keep the
	// output readable by running cases sequentially.

	tests := []struct {
		name   string
		cause  error
		wantOp string
		wantIs error
	}{
		{
			name:   "missing source package",
			cause:  fmt.Errorf("stat source package: %w", os.ErrNotExist),
			wantOp: "open source package",
			wantIs: os.ErrNotExist,
		},
		{
			name:   "invalid archive",
			cause:  fmt.Errorf("open source package x: %w", zip.ErrFormat),
			wantOp: "open source package",
			wantIs: zip.ErrFormat,
		},
		{
			name:   "lock acquisition failed",
			cause:  fmt.Errorf("%w: flock cache/dexcache.lock: permission denied", extractor.ErrLockFailed),
			wantOp: "acquire cache lock",
			wantIs: extractor.ErrLockFailed,
		},
		{
			name:   "retry exhausted",
			cause:  fmt.Errorf("could not create cache file: %w", extractor.ErrRetryExhausted),
			wantOp: "extract secondary archives",
			wantIs: extractor.ErrRetryExhausted,
		},
		{
			name:   "anything else",
			cause:  errors.New("disk on fire"),
			wantOp: "extract secondary archives",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := extractError(tt.cause, "/tmp/app.apk")

			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("extractError() returned %T, want *issue.ActionableError", err)
			}
			if ae.Operation != tt.wantOp {
				t.Errorf("Operation = %q, want %q", ae.Operation, tt.wantOp)
			}
			if ae.Resource != "/tmp/app.apk" {
				t.Errorf("Resource = %q, want %q", ae.Resource, "/tmp/app.apk")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("errors.Is(err, %v) = false, want true", tt.wantIs)
			}
		})
	}
}

func TestExitError(t *testing.T) {
	t.Parallel()

	underlying := errors.New("2 of 3 file(s) failed verification")
	exitErr := &ExitError{Code: 1, Err: underlying}

	if exitErr.Error() != underlying.Error() {
		t.Errorf("Error() = %q, want %q", exitErr.Error(), underlying.Error())
	}
	if !errors.Is(exitErr, underlying) {
		t.Error("errors.Is should find underlying error via Unwrap")
	}

	bare := &ExitError{Code: 3}
	if bare.Error() != "exit status 3" {
		t.Errorf("Error() = %q, want %q", bare.Error(), "exit status 3")
	}
}

func TestFormatSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    uint64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}

	for _, tt := range tests {
		if got := formatSize(tt.n); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
