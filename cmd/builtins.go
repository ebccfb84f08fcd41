package cmd

import (
	"github.com/josephlewis42/smallsh/core"
	"github.com/spf13/cobra"
)

// builtinsCmd lists the shell builtins
var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the builtin commands of the shell.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		core.PrintBuiltins(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
