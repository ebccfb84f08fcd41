// Package executor launches parsed commands as child processes.
package executor

import (
	"fmt"
	"io"
	"os"

	"github.com/josephlewis42/smallsh/core/logger"
	"github.com/josephlewis42/smallsh/core/shell"
	"github.com/josephlewis42/smallsh/core/state"
)

// DefaultNullDevice discards output and reads as empty input.
const DefaultNullDevice = "/dev/null"

// Spawner starts and waits for children.
type Spawner interface {
	// Start launches argv with files as its standard streams.
	Start(argv []string, files []*os.File, background bool) (pid int, err error)
	// Wait blocks until pid terminates.
	Wait(pid int) (state.ExitStatus, error)
}

// Executor runs commands in the foreground or background.
type Executor struct {
	State   *state.State
	Spawner Spawner

	// Stdin, Stdout and Stderr are handed to children that don't redirect.
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	// Out receives the shell's own notices, it defaults to Stdout.
	Out io.Writer
	// Reporter receives error messages, it defaults to one on Stderr.
	Reporter *Reporter

	NullDevice string
}

// New creates an executor bound to the process's standard streams.
func New(st *state.State, spawner Spawner) *Executor {
	return &Executor{
		State:      st,
		Spawner:    spawner,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		NullDevice: DefaultNullDevice,
	}
}

func (e *Executor) out() io.Writer {
	if e.Out != nil {
		return e.Out
	}
	return e.Stdout
}

func (e *Executor) reporter() *Reporter {
	if e.Reporter == nil {
		e.Reporter = NewReporter(e.Stderr, colorNever)
	}
	return e.Reporter
}

func (e *Executor) nullDevice() string {
	if e.NullDevice == "" {
		return DefaultNullDevice
	}
	return e.NullDevice
}

// Run executes cmd. It runs in the background only if cmd asks for it and
// foregroundOnly is false. Results are recorded in the shared state or
// written out, nothing is returned.
//
// The caller is expected to hold child-termination handling blocked so a
// background child can't be reported before its pid is printed and a
// foreground child is only collected here.
func (e *Executor) Run(cmd *shell.Command, foregroundOnly bool) {
	background := cmd.Background && !foregroundOnly
	log := logger.Component("executor")

	stdin, err := e.openInput(cmd.InputFile, background)
	if err != nil {
		e.State.SetLastStatus(state.Exited(1))
		log.Warn().Err(err).Str("path", cmd.InputFile).Msg("opening input")
		return
	}
	defer e.release(stdin, e.Stdin)

	stdout, err := e.openOutput(cmd.OutputFile, background)
	if err != nil {
		e.State.SetLastStatus(state.Exited(1))
		log.Warn().Err(err).Str("path", cmd.OutputFile).Msg("opening output")
		return
	}
	defer e.release(stdout, e.Stdout)

	pid, err := e.Spawner.Start(cmd.Argv, []*os.File{stdin, stdout, e.Stderr}, background)
	if err != nil {
		e.reporter().ForkError(err)
		log.Error().Err(err).Strs("argv", cmd.Argv).Msg("starting child")
		return
	}

	log.Info().
		Int("pid", pid).
		Strs("argv", cmd.Argv).
		Bool("background", background).
		Str("input", cmd.InputFile).
		Str("output", cmd.OutputFile).
		Msg("dispatched")

	if background {
		fmt.Fprintf(e.out(), "Background PID %d\n", pid)
		return
	}

	status, err := e.Spawner.Wait(pid)
	if err != nil {
		log.Error().Err(err).Int("pid", pid).Msg("waiting for child")
		return
	}
	e.State.SetLastStatus(status)
	log.Info().Int("pid", pid).Stringer("status", status).Msg("foreground complete")

	if status.Signaled {
		fmt.Fprintf(e.out(), "\n%s\n", status.Report())
	}
}

// openInput resolves the child's stdin: the named file, the null device in
// the background or the shell's own stdin.
func (e *Executor) openInput(path string, background bool) (*os.File, error) {
	switch {
	case path != "":
	case background:
		path = e.nullDevice()
	default:
		return e.Stdin, nil
	}

	fd, err := os.Open(path)
	if err != nil {
		e.reporter().OpenError(path, true, err)
		return nil, err
	}
	return fd, nil
}

// openOutput resolves the child's stdout: the named file (created or
// truncated), the null device in the background or the shell's own stdout.
func (e *Executor) openOutput(path string, background bool) (*os.File, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	switch {
	case path != "":
	case background:
		path = e.nullDevice()
		flags = os.O_WRONLY
	default:
		return e.Stdout, nil
	}

	fd, err := os.OpenFile(path, flags, 0666)
	if err != nil {
		e.reporter().OpenError(path, false, err)
		return nil, err
	}
	return fd, nil
}

// release closes fd if it was opened for this command.
func (e *Executor) release(fd, shared *os.File) {
	if fd != shared {
		fd.Close()
	}
}
