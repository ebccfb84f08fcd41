package signals

import (
	"golang.org/x/sys/unix"
)

// Primitives is the boundary between handler context and the system. Code
// running on behalf of a signal only touches the system through it: raw
// unbuffered writes, non-blocking reaps and kill.
type Primitives interface {
	// Write writes p to fd without buffering.
	Write(fd int, p []byte)
	// Reap collects one terminated child without blocking. pid is 0 if
	// children exist but none has terminated.
	Reap() (pid int, ws unix.WaitStatus, err error)
	// Kill sends sig to pid, 0 means the caller's process group.
	Kill(pid int, sig unix.Signal) error
}

// SystemPrimitives implements Primitives on the running process.
type SystemPrimitives struct{}

var _ Primitives = SystemPrimitives{}

// Write implements Primitives.
func (SystemPrimitives) Write(fd int, p []byte) {
	for len(p) > 0 {
		n, err := unix.Write(fd, p)
		switch {
		case err == unix.EINTR:
			continue
		case err != nil || n <= 0:
			return
		}
		p = p[n:]
	}
}

// Reap implements Primitives.
func (SystemPrimitives) Reap() (int, unix.WaitStatus, error) {
	var ws unix.WaitStatus
	for {
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG, nil)
		if err == unix.EINTR {
			continue
		}
		return pid, ws, err
	}
}

// Kill implements Primitives.
func (SystemPrimitives) Kill(pid int, sig unix.Signal) error {
	return unix.Kill(pid, sig)
}

// writeInt writes the decimal form of value using a fixed buffer.
func writeInt(p Primitives, fd int, value int) {
	var buf [20]byte
	i := len(buf)

	negative := value < 0
	u := uint64(value)
	if negative {
		u = uint64(-value)
	}

	for {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
		if u == 0 {
			break
		}
	}

	if negative {
		p.Write(fd, minus)
	}
	p.Write(fd, buf[i:])
}
