// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dexcache/internal/issue"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the config file base name (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"

	// appDirName is the subdirectory used under the platform config and
	// cache directories.
	appDirName = "dexcache"

	// envPrefix prefixes environment variable overrides, e.g.
	// DEXCACHE_CACHE_DIR and DEXCACHE_MAX_ATTEMPTS.
	envPrefix = "DEXCACHE"
)

type (
	// Config holds all dexcache settings.
	Config struct {
		// CacheDir is where extracted secondary archives are cached.
		CacheDir string `mapstructure:"cache_dir" toml:"cache_dir"`
		// MaxAttempts bounds the per-archive extract+verify retry loop.
		MaxAttempts int `mapstructure:"max_attempts" toml:"max_attempts"`
		// UI holds presentation settings.
		UI UIConfig `mapstructure:"ui" toml:"ui"`
	}

	// UIConfig holds presentation settings.
	UIConfig struct {
		// Verbose enables debug-level output.
		Verbose bool `mapstructure:"verbose" toml:"verbose"`
	}
)

// configFilePathOverride is set via the --config flag and takes precedence
// over the default search locations.
var configFilePathOverride string

// SetConfigFilePathOverride makes Load read exclusively from the given file.
func SetConfigFilePathOverride(path string) {
	configFilePathOverride = path
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		CacheDir:    defaultCacheDir(),
		MaxAttempts: 3,
	}
}

// defaultCacheDir picks the platform user cache directory, falling back to
// the temp directory when the home directory cannot be determined.
func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, appDirName)
}

// ConfigDir returns the directory holding the config file.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// ConfigFilePath returns the resolved config file path, honoring any
// override set via SetConfigFilePathOverride.
func ConfigFilePath() (string, error) {
	if configFilePathOverride != "" {
		return configFilePathOverride, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// Load resolves the effective configuration from defaults, the config file
// (if present), and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("cache_dir", defaults.CacheDir)
	v.SetDefault("max_attempts", defaults.MaxAttempts)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFilePathOverride != "" {
		// An explicit --config file must exist and parse.
		v.SetConfigFile(configFilePathOverride)
		if err := v.ReadInConfig(); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(configFilePathOverride).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file contains valid TOML").
				WithSuggestion("Run 'dexcache config init' to create a fresh one").
				Wrap(err).
				BuildError()
		}
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileExt)
		if dir, err := ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			// Missing config file means defaults; anything else is a
			// real problem the user should see.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, issue.NewErrorContext().
					WithOperation("load configuration").
					WithResource(v.ConfigFileUsed()).
					WithSuggestion("Check that the file contains valid TOML").
					WithSuggestion("Remove the config file to fall back to defaults").
					Wrap(err).
					BuildError()
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.MaxAttempts < 1 {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithSuggestion("Set max_attempts to 1 or higher").
			Wrap(fmt.Errorf("max_attempts must be at least 1, got %d", cfg.MaxAttempts)).
			BuildError()
	}

	return &cfg, nil
}

// WriteDefault writes the default configuration as TOML to path, creating
// parent directories as needed. It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	content, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
