// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <package>",
	Short: "List the secondary dex archives inside a package",
	Long: `List the contiguous run of secondary dex archives in the given package
without extracting anything. Discovery probes classes2.dex, classes3.dex,
... and stops at the first absent index, exactly like extraction does:
an entry after a gap is invisible to the loader and is reported as absent
here too.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(args[0])
	},
}

func runInspect(sourcePath string) error {
	infos, err := newExtractor().SecondaryEntries(sourcePath)
	if err != nil {
		return extractError(err, sourcePath)
	}

	if len(infos) == 0 {
		fmt.Println(SubtitleStyle.Render("no secondary archives (single-dex package)"))
		return nil
	}

	for _, info := range infos {
		fmt.Printf("%s  %s  %s\n",
			TitleStyle.Render(info.Name),
			formatSize(info.UncompressedSize),
			SubtitleStyle.Render(info.Modified.Format("2006-01-02 15:04:05")),
		)
	}
	return nil
}

// formatSize renders a byte count in a compact human-readable form.
func formatSize(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
