// Package spawn starts child processes with the dispositions the shell
// requires between fork and exec.
//
// Go offers no hook that runs in the child after fork, so the shell starts
// its own executable with a marker argument. That child adjusts its signal
// dispositions and then replaces itself with the requested program. Ignored
// signals stay ignored across exec while handled ones revert to default,
// which is exactly the lever needed:
//
//	SIGTSTP  ignored
//	SIGINT   ignored in the background, default in the foreground
//	SIGCHLD  default
//
// Until the child has run its own setup SIGTSTP is whatever it inherited.
// Set Spawner.Hold so the parent ignores SIGTSTP while starting children,
// otherwise a ^Z in that window stops the child before it can ignore it.
package spawn

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"

	"github.com/josephlewis42/smallsh/core/state"
	"golang.org/x/sys/unix"
)

const (
	childMarker = "--smallsh-exec-child"

	modeForeground = "fg"
	modeBackground = "bg"
)

// IsChild reports whether args, usually os.Args, belong to a child started
// by a Spawner.
func IsChild(args []string) bool {
	return len(args) > 3 && args[1] == childMarker
}

// Main runs the child side and never returns. It must be called before any
// other initialization when IsChild is true.
func Main(args []string) {
	os.Exit(execChild(args[3:], args[2] == modeBackground, os.Stderr))
}

// execChild only returns if the program could not replace the process.
func execChild(argv []string, background bool, stderr io.Writer) int {
	signal.Ignore(unix.SIGTSTP)
	if background {
		signal.Ignore(unix.SIGINT)
	} else {
		// A handled signal reverts to default on exec.
		signal.Notify(make(chan os.Signal, 1), unix.SIGINT)
	}

	path, err := exec.LookPath(argv[0])
	if errors.Is(err, exec.ErrDot) {
		err = nil
	}
	if err == nil {
		err = unix.Exec(path, argv, os.Environ())
	}

	fmt.Fprintf(stderr, "Error. Command %s not found. %v\n", argv[0], err)
	return 1
}

// Spawner starts children through the shell's own executable.
type Spawner struct {
	// Self is the path of the running executable.
	Self string
	// Hold, if set, is called before a child is started and the func it
	// returns once the child exists.
	Hold func() (release func())
}

// NewSpawner creates a Spawner for the running executable.
func NewSpawner() (*Spawner, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating shell executable: %w", err)
	}
	return &Spawner{Self: self}, nil
}

// Start launches argv with files as its stdin, stdout and stderr and returns
// the child's pid. The child is never waited on through os.Process, callers
// collect it with Wait or an asynchronous reap.
func (s *Spawner) Start(argv []string, files []*os.File, background bool) (int, error) {
	if len(argv) == 0 {
		return 0, errors.New("spawn: empty argv")
	}

	mode := modeForeground
	if background {
		mode = modeBackground
	}

	args := make([]string, 0, len(argv)+3)
	args = append(args, s.Self, childMarker, mode)
	args = append(args, argv...)

	if s.Hold != nil {
		release := s.Hold()
		defer release()
	}

	proc, err := os.StartProcess(s.Self, args, &os.ProcAttr{Files: files})
	if err != nil {
		return 0, err
	}

	pid := proc.Pid
	if err := proc.Release(); err != nil {
		return pid, err
	}
	return pid, nil
}

// Wait blocks until the child pid terminates.
func (s *Spawner) Wait(pid int) (state.ExitStatus, error) {
	for {
		var ws unix.WaitStatus
		_, err := unix.Wait4(pid, &ws, 0, nil)
		switch {
		case err == unix.EINTR:
			continue
		case err != nil:
			return state.ExitStatus{}, fmt.Errorf("waiting for %d: %w", pid, err)
		}

		if status, ok := state.FromWaitStatus(ws); ok {
			return status, nil
		}
	}
}
