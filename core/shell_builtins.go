package core

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pborman/getopt/v2"
)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]ShellBuiltin)

// ShellBuiltin runs inside the shell process. Builtins ignore redirection and
// "&" and never change the last foreground status.
type ShellBuiltin interface {
	Main(s *Shell, args []string)
	Usage() (use, short string)
}

type builtinFunc struct {
	use   string
	short string
	run   func(s *Shell, args []string)
}

func (b *builtinFunc) Main(s *Shell, args []string) {
	operands, ok := b.parse(s, args)
	if !ok {
		return
	}
	b.run(s, operands)
}

func (b *builtinFunc) Usage() (string, string) {
	return b.use, b.short
}

// parse handles -h/--help and returns the operands. Anything getopt rejects
// is handed to the builtin untouched.
func (b *builtinFunc) parse(s *Shell, args []string) ([]string, bool) {
	opts := getopt.New()
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil {
		return args[1:], true
	}

	if *helpOpt {
		w := s.Stdout
		fmt.Fprintln(w, "usage:", b.use)
		fmt.Fprintln(w, b.short)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		opts.PrintOptions(w)
		return nil, false
	}

	return opts.Args(), true
}

var _ ShellBuiltin = (*builtinFunc)(nil)

// Cd changes the working directory to the first operand, or $HOME.
func Cd(s *Shell, args []string) {
	dir := os.Getenv(EnvHome)
	if len(args) > 0 {
		dir = args[0]
	}

	if err := os.Chdir(dir); err != nil {
		s.Reporter.PathError(err)
	}
}

// Status prints the status of the last foreground process.
func Status(s *Shell, args []string) {
	fmt.Fprintln(s.Stdout, s.State.LastStatus().Report())
}

// Exit quits the shell after the current line.
func Exit(s *Shell, args []string) {
	s.Quit = true
}

// Help lists the builtins.
func Help(s *Shell, args []string) {
	PrintBuiltins(s.Stdout)
}

// PrintBuiltins writes a sorted list of builtins with their descriptions.
func PrintBuiltins(w io.Writer) {
	var names []string
	for name := range AllBuiltins {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		use, short := AllBuiltins[name].Usage()
		fmt.Fprintf(w, "%-20s %s\n", use, short)
	}
}

func addBuiltin(name, use, short string, run func(s *Shell, args []string)) {
	AllBuiltins[name] = &builtinFunc{use: use, short: short, run: run}
}

func init() {
	addBuiltin("cd", "cd [DIR]", "Change the working directory, $HOME by default.", Cd)
	addBuiltin("status", "status", "Print the exit value or terminating signal of the last foreground process.", Status)
	addBuiltin("exit", "exit", "Terminate all children and exit the shell.", Exit)
	addBuiltin("help", "help", "List the shell builtins.", Help)
}
