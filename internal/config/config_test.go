// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dexcache/internal/issue"
)

// withOverride points Load at a specific config file for the test's duration.
func withOverride(t *testing.T, path string) {
	t.Helper()
	SetConfigFilePathOverride(path)
	t.Cleanup(func() { SetConfigFilePathOverride("") })
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.CacheDir == "" {
		t.Error("default cache_dir is empty")
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("default max_attempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.UI.Verbose {
		t.Error("default ui.verbose must be false")
	}
}

func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, cfg *Config)
		wantErr bool
	}{
		{
			name: "full config",
			content: `cache_dir = "/opt/dex"
max_attempts = 5

[ui]
verbose = true
`,
			check: func(t *testing.T, cfg *Config) {
				if cfg.CacheDir != "/opt/dex" {
					t.Errorf("cache_dir = %q, want /opt/dex", cfg.CacheDir)
				}
				if cfg.MaxAttempts != 5 {
					t.Errorf("max_attempts = %d, want 5", cfg.MaxAttempts)
				}
				if !cfg.UI.Verbose {
					t.Error("ui.verbose = false, want true")
				}
			},
		},
		{
			name:    "partial config keeps defaults",
			content: `cache_dir = "/opt/dex"` + "\n",
			check: func(t *testing.T, cfg *Config) {
				if cfg.MaxAttempts != 3 {
					t.Errorf("max_attempts = %d, want default 3", cfg.MaxAttempts)
				}
			},
		},
		{
			name:    "invalid TOML",
			content: "cache_dir = [broken\n",
			wantErr: true,
		},
		{
			name:    "max_attempts below 1",
			content: "max_attempts = 0\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			withOverride(t, path)

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Load succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadMissingOverrideFile(t *testing.T) {
	withOverride(t, filepath.Join(t.TempDir(), "absent.toml"))

	_, err := Load()
	if err == nil {
		t.Fatal("Load succeeded with a missing --config file")
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Errorf("error type = %T, want *issue.ActionableError", err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("max_attempts = 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	withOverride(t, path)
	t.Setenv("DEXCACHE_MAX_ATTEMPTS", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxAttempts != 7 {
		t.Errorf("max_attempts = %d, want env override 7", cfg.MaxAttempts)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "max_attempts = 3") {
		t.Errorf("written config missing default max_attempts:\n%s", content)
	}

	// Round trip: the written file must load cleanly.
	withOverride(t, path)
	if _, err := Load(); err != nil {
		t.Errorf("written default config does not load: %v", err)
	}

	if err := WriteDefault(path); err == nil {
		t.Error("WriteDefault overwrote an existing file")
	}
}
