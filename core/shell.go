package core

import (
	"bufio"
	"io"
	"os"
	"time"

	"github.com/josephlewis42/smallsh/core/config"
	"github.com/josephlewis42/smallsh/core/executor"
	"github.com/josephlewis42/smallsh/core/logger"
	"github.com/josephlewis42/smallsh/core/shell"
	"github.com/josephlewis42/smallsh/core/state"
	"github.com/mattn/go-isatty"
)

const EnvHome = "HOME"

// SignalController is the part of the signal controller the read loop
// drives.
type SignalController interface {
	// Block masks child-termination handling.
	Block()
	// Unblock undoes Block.
	Unblock()
	// Shutdown terminates the process group and drains quietly.
	Shutdown(grace time.Duration)
}

// Runner executes commands that aren't builtins.
type Runner interface {
	Run(cmd *shell.Command, foregroundOnly bool)
}

type Shell struct {
	Config   *config.Configuration
	State    *state.State
	Parser   *shell.Parser
	Signals  SignalController
	Runner   Runner
	Reporter *executor.Reporter

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	in          io.ByteReader
	interactive bool

	// Set to true to quit the shell
	Quit bool
}

// NewShell creates a shell reading from stdin. End of input only ends the
// shell if stdin isn't a terminal.
func NewShell(cfg *config.Configuration, st *state.State, sig SignalController, runner Runner, stdin io.Reader, stdout, stderr io.Writer) *Shell {
	s := &Shell{
		Config:   cfg,
		State:    st,
		Parser:   shell.NewParser(os.Getpid(), cfg.MaxArgs),
		Signals:  sig,
		Runner:   runner,
		Reporter: executor.NewReporter(stderr, cfg.Color),
		Stdin:    stdin,
		Stdout:   stdout,
		Stderr:   stderr,
	}

	if f, ok := stdin.(*os.File); ok {
		s.interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	s.in = newLineReader(stdin)

	return s
}

func newLineReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}

// Interactive reports whether the shell reads from a terminal.
func (s *Shell) Interactive() bool {
	return s.interactive
}

// Run reads and executes lines until exit is requested, then terminates the
// shell's children. It returns the shell's exit code.
func (s *Shell) Run() int {
	log := logger.Component("shell")
	log.Info().Bool("interactive", s.interactive).Msg("starting read loop")

	for !s.Quit {
		s.Signals.Block()

		io.WriteString(s.Stdout, s.Config.Prompt)
		line, err := s.readLine()
		switch {
		case err == io.EOF && !s.interactive:
			s.Quit = true
		case err == io.EOF:
			// Retry, a terminal can deliver more input after ^D.
		case err != nil:
			log.Error().Err(err).Msg("reading input")
		}

		s.RunLine(line)

		s.Signals.Unblock()
		time.Sleep(s.Config.ReapDelay())
	}

	return s.exit()
}

// RunOnce executes a single line and exits.
func (s *Shell) RunOnce(line string) int {
	s.Signals.Block()
	s.RunLine(line)
	s.Signals.Unblock()
	time.Sleep(s.Config.ReapDelay())

	return s.exit()
}

// RunLine parses line and runs it as a builtin or child process. Callers
// hold child-termination handling blocked.
func (s *Shell) RunLine(line string) {
	cmd, ok := s.Parser.Parse(line)
	if !ok {
		return
	}

	if builtin, ok := AllBuiltins[cmd.Name()]; ok {
		builtin.Main(s, cmd.Argv)
		return
	}

	// Foreground-only mode is read now, not when the line was parsed.
	s.Runner.Run(cmd, s.State.ForegroundOnly())
}

func (s *Shell) exit() int {
	logger.Component("shell").Info().Msg("shutting down")
	s.Signals.Shutdown(s.Config.ShutdownGrace())
	return 0
}

// readLine reads one line of at most the configured maximum.
func (s *Shell) readLine() (string, error) {
	return shell.ReadLine(s.in, s.Config.MaxInputChars+1)
}
