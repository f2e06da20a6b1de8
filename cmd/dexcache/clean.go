// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean <package>",
	Short: "Remove a package's cached containers",
	Long: `Delete every cache file belonging to the given package from the cache
directory. The next extract run rebuilds them. Other packages' cache
files and the lock file are left untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClean(args[0])
	},
}

func runClean(sourcePath string) error {
	removed, err := newExtractor().Evict(effectiveCacheDir(), sourcePath)
	if err != nil {
		return err
	}
	fmt.Println(SuccessStyle.Render(fmt.Sprintf("removed %d cache file(s)", removed)))
	return nil
}
