// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"

	"dexcache/internal/extractor"
	"dexcache/internal/issue"
	"dexcache/pkg/loader"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <package>",
	Short: "Extract a package's secondary dex archives into the cache",
	Long: `Extract every secondary dex archive (classes2.dex, classes3.dex, ...)
from the given application package into the cache directory, skipping
archives that are already cached for the current package version.

The ordered list of cache file paths is printed to stdout, one per line,
in the order a loader must register them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(args[0])
	},
}

func runExtract(sourcePath string) error {
	files, err := newExtractor().Load(sourcePath, effectiveCacheDir())
	if err != nil {
		return extractError(err, sourcePath)
	}

	// The CLI's "loader" just reports the ordered paths; a real runtime
	// integration plugs its own loader.Loader in here.
	report := loader.Func(func(paths []string) error {
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	})
	if err := report.Install(files); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, SuccessStyle.Render(fmt.Sprintf("cached %d secondary archive(s)", len(files))))
	return nil
}

// extractError classifies a Load failure, shows the matching remediation
// page, and wraps the cause with actionable context.
func extractError(err error, sourcePath string) error {
	switch {
	// Checked first: a lock failure can itself wrap os.ErrNotExist.
	case errors.Is(err, extractor.ErrLockFailed):
		printIssue(issue.RenameLockFailedId)
		return issue.NewErrorContext().
			WithOperation("acquire cache lock").
			WithResource(sourcePath).
			WithSuggestion("Check permissions on the cache directory").
			Wrap(err).
			BuildError()
	case errors.Is(err, os.ErrNotExist):
		printIssue(issue.SourcePackageNotFoundId)
		return issue.NewErrorContext().
			WithOperation("open source package").
			WithResource(sourcePath).
			WithSuggestion("Check the path for typos").
			Wrap(err).
			BuildError()
	case errors.Is(err, zip.ErrFormat):
		printIssue(issue.SourcePackageInvalidId)
		return issue.NewErrorContext().
			WithOperation("open source package").
			WithResource(sourcePath).
			WithSuggestion("Confirm the file is a zip-format application package").
			Wrap(err).
			BuildError()
	case errors.Is(err, extractor.ErrRetryExhausted):
		printIssue(issue.ExtractionRetryExhaustedId)
		return issue.NewErrorContext().
			WithOperation("extract secondary archives").
			WithResource(sourcePath).
			WithSuggestion("Check free space under the cache directory").
			WithSuggestion("Run 'dexcache clean' for this package and retry").
			Wrap(err).
			BuildError()
	default:
		printIssue(issue.CacheDirFailedId)
		return issue.NewErrorContext().
			WithOperation("extract secondary archives").
			WithResource(sourcePath).
			Wrap(err).
			BuildError()
	}
}
