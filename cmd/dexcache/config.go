// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"dexcache/internal/config"
	"dexcache/internal/issue"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and manage dexcache configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigInit()
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigFilePath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow() error {
	out, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func runConfigInit() error {
	path, err := config.ConfigFilePath()
	if err != nil {
		return err
	}
	if err := config.WriteDefault(path); err != nil {
		printIssue(issue.ConfigLoadFailedId)
		return issue.NewErrorContext().
			WithOperation("write default config").
			WithResource(path).
			WithSuggestion("Remove or back up the existing file first").
			Wrap(err).
			BuildError()
	}
	fmt.Println(SuccessStyle.Render("wrote " + path))
	return nil
}
