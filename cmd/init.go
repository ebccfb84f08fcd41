package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/josephlewis42/smallsh/core/config"
	"github.com/spf13/cobra"
)

// initCmd intializes the shell configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the --config directory (default: current directory).",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		dir := cfgPath
		if dir == "" {
			dir = "."
		}

		if err := config.Initialize(dir); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration: %s\n", filepath.Join(dir, config.ConfigurationName))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
