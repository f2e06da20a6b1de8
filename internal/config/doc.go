// SPDX-License-Identifier: MPL-2.0

// Package config loads and persists dexcache configuration.
//
// Configuration is resolved from, in increasing precedence: built-in
// defaults, an optional TOML config file, and DEXCACHE_* environment
// variables. The config file lives in the platform config directory
// (e.g. ~/.config/dexcache/config.toml on Linux) unless overridden.
package config
