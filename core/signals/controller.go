// Package signals owns the shell's signal dispositions.
//
// SIGTSTP toggles foreground-only mode, SIGCHLD drains every terminated
// child and SIGINT is ignored by the shell itself. Handler bodies run on
// dedicated goroutines and only reach the system through Primitives.
package signals

import (
	"errors"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/josephlewis42/smallsh/core/logger"
	"github.com/josephlewis42/smallsh/core/state"
	"golang.org/x/sys/unix"
)

var (
	reapedPrefix = []byte("Background PID ")
	reapedInfix  = []byte(" is done: ")
	exitedMsg    = []byte("exit value ")
	signaledMsg  = []byte("terminated by signal ")
	newline      = []byte("\n")
	minus        = []byte("-")
)

const (
	enterForegroundOnly = "\nEntering foreground-only mode (& is now ignored)\n"
	exitForegroundOnly  = "\nExiting foreground-only mode\n"
)

// ErrInstalled is returned when handlers are installed twice.
var ErrInstalled = errors.New("signals: handlers already installed")

// Controller switches between normal and foreground-only mode and reaps
// background children.
type Controller struct {
	state *state.State
	prims Primitives
	fd    int

	enterMsg []byte
	exitMsg  []byte

	// gate is held while child-termination handling is masked.
	gate  sync.Mutex
	quiet atomic.Bool

	installed bool
	stopCh    chan os.Signal
	childCh   chan os.Signal
	done      chan struct{}
	wg        sync.WaitGroup
}

// New creates a controller that writes notices to stdout followed by prompt.
func New(st *state.State, prims Primitives, prompt string) *Controller {
	if prims == nil {
		prims = SystemPrimitives{}
	}
	return &Controller{
		state:    st,
		prims:    prims,
		fd:       unix.Stdout,
		enterMsg: []byte(enterForegroundOnly + prompt),
		exitMsg:  []byte(exitForegroundOnly + prompt),
	}
}

// Install sets the shell's top level dispositions: SIGTSTP toggles the mode,
// SIGCHLD reaps children and SIGINT is ignored.
func (c *Controller) Install() error {
	if c.installed {
		return ErrInstalled
	}
	c.installed = true

	c.stopCh = make(chan os.Signal, 1)
	c.childCh = make(chan os.Signal, 1)
	c.done = make(chan struct{})

	signal.Ignore(unix.SIGINT)
	signal.Notify(c.stopCh, unix.SIGTSTP)
	signal.Notify(c.childCh, unix.SIGCHLD)

	c.wg.Add(2)
	go c.loop(c.stopCh, c.HandleStop)
	go c.loop(c.childCh, c.HandleChild)

	logger.Component("signals").Debug().Msg("handlers installed")
	return nil
}

func (c *Controller) loop(ch <-chan os.Signal, handler func()) {
	defer c.wg.Done()
	for {
		select {
		case <-ch:
			handler()
		case <-c.done:
			return
		}
	}
}

// Close stops delivery and restores default dispositions.
func (c *Controller) Close() error {
	if !c.installed {
		return nil
	}
	signal.Stop(c.stopCh)
	signal.Stop(c.childCh)
	close(c.done)
	c.wg.Wait()
	signal.Reset(unix.SIGINT, unix.SIGTSTP, unix.SIGCHLD)
	c.installed = false
	return nil
}

// HandleStop runs on SIGTSTP. Each delivery behaves opposite to the last.
func (c *Controller) HandleStop() {
	if c.state.ToggleForegroundOnly() {
		c.prims.Write(c.fd, c.enterMsg)
	} else {
		c.prims.Write(c.fd, c.exitMsg)
	}
	logger.Component("signals").Info().Bool("foreground_only", c.state.ForegroundOnly()).Msg("mode toggled")
}

// HoldStop ignores SIGTSTP until the returned func is called, so children
// started in between inherit the ignored disposition. A ^Z arriving while
// held doesn't toggle the mode.
func (c *Controller) HoldStop() func() {
	if !c.installed {
		return func() {}
	}

	signal.Ignore(unix.SIGTSTP)
	return func() {
		signal.Notify(c.stopCh, unix.SIGTSTP)
	}
}

// Block masks child-termination handling until Unblock is called. A child
// that terminates in between is reaped after Unblock.
func (c *Controller) Block() {
	c.gate.Lock()
}

// Unblock undoes Block.
func (c *Controller) Unblock() {
	c.gate.Unlock()
}

// HandleChild runs on SIGCHLD. It waits while handling is blocked and then
// drains every terminated child.
func (c *Controller) HandleChild() {
	c.gate.Lock()
	defer c.gate.Unlock()

	n := c.drain(!c.quiet.Load())
	if n > 0 {
		logger.Component("signals").Debug().Int("reaped", n).Msg("drained children")
	}
}

// Drain reaps every terminated child now, reporting each one unless the
// controller is shutting down. The caller must not hold the Block.
func (c *Controller) Drain() int {
	c.gate.Lock()
	defer c.gate.Unlock()
	return c.drain(!c.quiet.Load())
}

// drain reaps until no terminated child remains. Reap errors, including
// having no children at all, end the loop.
func (c *Controller) drain(report bool) int {
	count := 0
	for {
		pid, ws, err := c.prims.Reap()
		if err != nil || pid <= 0 {
			return count
		}
		count++

		if !report {
			continue
		}

		c.prims.Write(c.fd, reapedPrefix)
		writeInt(c.prims, c.fd, pid)
		c.prims.Write(c.fd, reapedInfix)
		switch {
		case ws.Exited():
			c.prims.Write(c.fd, exitedMsg)
			writeInt(c.prims, c.fd, ws.ExitStatus())
		case ws.Signaled():
			c.prims.Write(c.fd, signaledMsg)
			writeInt(c.prims, c.fd, int(ws.Signal()))
		}
		c.prims.Write(c.fd, newline)
	}
}

// Shutdown switches to quiet reaping, ignores SIGTERM, sends SIGTERM to the
// shell's process group and waits grace for children to be collected.
func (c *Controller) Shutdown(grace time.Duration) {
	c.quiet.Store(true)
	signal.Ignore(unix.SIGTERM)

	if err := c.prims.Kill(0, unix.SIGTERM); err != nil {
		logger.Component("signals").Warn().Err(err).Msg("signalling process group")
	}
	time.Sleep(grace)
	logger.Component("signals").Info().Dur("grace", grace).Msg("shutdown complete")
}
