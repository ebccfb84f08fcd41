package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelDisabled turns logging off.
const LevelDisabled = "disabled"

func init() {
	// Silent until Setup is called so packages can log unconditionally.
	log.Logger = zerolog.Nop()
}

// New creates a JSON lines logger writing to w at the given level. Every
// entry carries the session ID of the shell that wrote it.
func New(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("session", SessionID()).
		Logger(), nil
}

// Setup installs a logger created by New as the global logger.
func Setup(w io.Writer, level string) error {
	l, err := New(w, level)
	if err != nil {
		return err
	}
	log.Logger = l
	return nil
}

// SessionID identifies one run of the shell.
func SessionID() string {
	return fmt.Sprintf("%d-%d", os.Getpid(), startTime.UnixNano())
}

var startTime = time.Now()

// Component creates a new logger with a component identifier.
func Component(name string) *zerolog.Logger {
	l := log.With().Str("cmp", name).Logger()
	return &l
}
