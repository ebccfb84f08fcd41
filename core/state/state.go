// Package state holds the process wide execution state of the shell.
package state

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// ExitStatus is the outcome of a foreground child.
type ExitStatus struct {
	// Code is the exit code, or the signal number if Signaled is set.
	Code int
	// Signaled is set if the child was terminated by a signal.
	Signaled bool
}

// Exited returns the status of a child that exited normally with code.
func Exited(code int) ExitStatus {
	return ExitStatus{Code: code}
}

// KilledBy returns the status of a child terminated by signal sig.
func KilledBy(sig int) ExitStatus {
	return ExitStatus{Code: sig, Signaled: true}
}

// FromWaitStatus converts a wait status. It returns false for states other
// than normal exit or termination by signal.
func FromWaitStatus(ws unix.WaitStatus) (ExitStatus, bool) {
	switch {
	case ws.Exited():
		return Exited(ws.ExitStatus()), true
	case ws.Signaled():
		return KilledBy(int(ws.Signal())), true
	default:
		return ExitStatus{}, false
	}
}

func (e ExitStatus) String() string {
	if e.Signaled {
		return fmt.Sprintf("terminated by signal %d", e.Code)
	}
	return fmt.Sprintf("exit value %d", e.Code)
}

// Report formats the status the way the status builtin prints it.
func (e ExitStatus) Report() string {
	return "Last foreground process status: " + e.String()
}

// State is shared between the read loop, the executor and the signal
// controller. The zero value is ready to use: exit value 0, normal mode.
type State struct {
	mu   sync.RWMutex
	last ExitStatus

	foregroundOnly atomic.Bool
}

// New creates a state in normal mode with a last status of exit value 0.
func New() *State {
	return &State{}
}

// LastStatus returns the status of the last foreground child.
func (s *State) LastStatus() ExitStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// SetLastStatus records the status of a foreground child or of a failed
// launch. Background completions must never call it.
func (s *State) SetLastStatus(status ExitStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = status
}

// ForegroundOnly reports whether "&" is currently ignored.
func (s *State) ForegroundOnly() bool {
	return s.foregroundOnly.Load()
}

// SetForegroundOnly sets the mode.
func (s *State) SetForegroundOnly(enabled bool) {
	s.foregroundOnly.Store(enabled)
}

// ToggleForegroundOnly flips the mode and returns the new value.
func (s *State) ToggleForegroundOnly() bool {
	for {
		old := s.foregroundOnly.Load()
		if s.foregroundOnly.CompareAndSwap(old, !old) {
			return !old
		}
	}
}
