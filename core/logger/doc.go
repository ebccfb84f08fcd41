// Package logger configures the shell's diagnostic log.
//
// The log is newline delimited JSON written to a file, never to the
// terminal the shell is drawing on.
package logger
