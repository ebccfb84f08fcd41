package executor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/fatih/color"
)

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

// Reporter writes user facing error messages.
type Reporter struct {
	W io.Writer
	// Color selects when the "Error." prefix is colored: always, auto or never.
	Color string
}

// NewReporter creates a reporter writing to w.
func NewReporter(w io.Writer, colorMode string) *Reporter {
	return &Reporter{W: w, Color: colorMode}
}

func (r *Reporter) prefix() string {
	c := color.New(color.FgRed, color.Bold)
	switch r.Color {
	case colorAlways:
		c.EnableColor()
	case colorAuto:
		// Defer to the terminal detection done by the color package.
	default:
		c.DisableColor()
	}
	return c.Sprint("Error.")
}

// unwrapPath drops the operation and path from a *fs.PathError, callers
// already name the path.
func unwrapPath(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}

// Errorf prints "Error. " followed by the formatted message and a newline.
func (r *Reporter) Errorf(format string, a ...interface{}) {
	fmt.Fprintf(r.W, "%s %s\n", r.prefix(), fmt.Sprintf(format, a...))
}

// OpenError reports a redirection target that could not be opened.
func (r *Reporter) OpenError(path string, forInput bool, err error) {
	direction := "output"
	if forInput {
		direction = "input"
	}
	r.Errorf("Could not open file %s for %s: %v", path, direction, unwrapPath(err))
}

// ForkError reports a child that could not be started.
func (r *Reporter) ForkError(err error) {
	r.Errorf("fork failed: %v", err)
}

// PathError reports a failed directory change.
func (r *Reporter) PathError(err error) {
	r.Errorf("Path not found: %v", err)
}
