// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"dexcache/internal/extractor"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// verifyConcurrency bounds how many files are checked at once.
const verifyConcurrency = 4

var verifyCmd = &cobra.Command{
	Use:   "verify <path>...",
	Short: "Check cached containers for corruption",
	Long: `Open each given cache file as a zip archive and report whether it is
structurally valid, along with its SHA-1 fingerprint. Exits non-zero if
any file fails verification.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVerify(args)
	},
}

func runVerify(paths []string) error {
	e := newExtractor()

	type result struct {
		ok   bool
		sha1 string
	}
	results := make([]result, len(paths))

	var g errgroup.Group
	g.SetLimit(verifyConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			ok := e.Verify(path)
			r := result{ok: ok}
			if ok {
				r.sha1 = extractor.Fingerprint(path)
			}
			results[i] = r
			return nil
		})
	}
	// Workers never return errors; failures are reported per file below.
	_ = g.Wait()

	failed := 0
	for i, path := range paths {
		if results[i].ok {
			fmt.Printf("%s  %s  sha1=%s\n", SuccessStyle.Render("ok     "), path, results[i].sha1)
		} else {
			failed++
			fmt.Printf("%s  %s\n", ErrorStyle.Render("corrupt"), path)
		}
	}

	if failed > 0 {
		return &ExitError{
			Code: 1,
			Err:  fmt.Errorf("%d of %d file(s) failed verification", failed, len(paths)),
		}
	}
	return nil
}
