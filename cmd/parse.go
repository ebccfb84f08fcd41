package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/josephlewis42/smallsh/core/shell"
	"github.com/spf13/cobra"
)

const nothingToDo = "<nothing to do>"

func printParsed(w io.Writer, parser *shell.Parser, line string) {
	if cmd, ok := parser.Parse(line); ok {
		fmt.Fprintln(w, cmd)
	} else {
		fmt.Fprintln(w, nothingToDo)
	}
}

// parseCmd shows how lines are parsed without running them
var parseCmd = &cobra.Command{
	Use:   "parse [LINE]...",
	Short: "Print how each line is parsed, reading stdin if no lines are given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		parser := shell.NewParser(os.Getpid(), cfg.MaxArgs)

		w := cmd.OutOrStdout()
		if len(args) > 0 {
			for _, line := range args {
				printParsed(w, parser, line)
			}
			return nil
		}

		// Long lines are split the way the shell reads them.
		in := bufio.NewReader(cmd.InOrStdin())
		for {
			line, err := shell.ReadLine(in, cfg.MaxInputChars+1)
			if line != "" {
				printParsed(w, parser, line)
			}
			switch {
			case err == io.EOF:
				return nil
			case err != nil:
				return err
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
