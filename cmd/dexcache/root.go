// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for dexcache.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"dexcache/internal/config"
	"dexcache/internal/extractor"
	"dexcache/internal/issue"

	"github.com/charmbracelet/fang"
	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// cacheDirFlag overrides the configured cache directory
	cacheDirFlag string

	// cfg is the effective configuration, loaded by initRootConfig.
	cfg *config.Config

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "dexcache",
		Short: "Extract and cache secondary dex archives",
		Long: TitleStyle.Render("dexcache") + SubtitleStyle.Render(" - secondary dex archive extraction cache") + `

An application package that outgrows the runtime loader's method reference
limit ships its extra code as secondary archives (classes2.dex,
classes3.dex, ...) inside the package. dexcache extracts each one into a
standalone, independently loadable container in a private cache directory,
exactly once per package version, safely under concurrent invocation.

` + SubtitleStyle.Render("Examples:") + `
  dexcache extract app.apk        Extract and cache secondary archives
  dexcache inspect app.apk        List secondary archives in a package
  dexcache verify cache/*.zip     Check cached containers for corruption
  dexcache clean app.apk          Remove a package's cached containers`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/dexcache/config.toml)")
	rootCmd.PersistentFlags().StringVar(&cacheDirFlag, "cache-dir", "", "cache directory (overrides the configured cache_dir)")

	// Add subcommands
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads in the config file and DEXCACHE_* env variables.
func initRootConfig() {
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		cfg = config.DefaultConfig()
	}

	// Apply verbose from config if not set via flag
	if !verbose {
		verbose = cfg.UI.Verbose
	}

	setupLogging()
}

// setupLogging installs a charmbracelet/log handler as the process-wide
// slog backend. The extraction engine receives this logger by injection.
func setupLogging() {
	handler := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
	})
	if verbose {
		handler.SetLevel(charmlog.DebugLevel)
	} else {
		handler.SetLevel(charmlog.WarnLevel)
	}
	slog.SetDefault(slog.New(handler))
}

// effectiveCacheDir resolves the cache directory from the flag or config.
func effectiveCacheDir() string {
	if cacheDirFlag != "" {
		return cacheDirFlag
	}
	return cfg.CacheDir
}

// newExtractor builds the extraction engine from the effective config.
func newExtractor() *extractor.Extractor {
	return extractor.New(extractor.Options{
		Logger:      slog.Default(),
		MaxAttempts: cfg.MaxAttempts,
	})
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// printIssue renders an issue's markdown remediation page to stderr.
// Rendering failures fall back to the raw markdown.
func printIssue(id issue.Id) {
	is := issue.Get(id)
	if is == nil {
		return
	}
	out, err := is.Render("auto")
	if err != nil {
		out = string(is.MarkdownMsg())
	}
	fmt.Fprintln(os.Stderr, out)
}
