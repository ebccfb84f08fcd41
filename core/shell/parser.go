// Package shell turns raw input lines into commands.
//
// The grammar is intentionally small:
//
//	(#comment | command [arg]* [< file] [> file] [&])
//
// Words are separated by single spaces after expansion, redirection
// operators are only recognized with a space on both sides and "&" only as
// the final standalone token. The only expansion is "$$", which becomes the
// shell's process id.
package shell

import (
	"os"
	"strconv"
	"strings"
)

const (
	// DefaultMaxInputChars is the longest line read in one prompt cycle.
	DefaultMaxInputChars = 2048
	// DefaultMaxArgs is the number of arguments kept after the command name,
	// so at most DefaultMaxArgs+1 words including the name. Extra words are
	// dropped.
	DefaultMaxArgs = 512

	commentMarker = '#'
)

// Parser expands and parses input lines.
type Parser struct {
	// PID is substituted for "$$".
	PID int
	// MaxArgs caps the arguments following the command name, extra words are
	// dropped.
	MaxArgs int

	pid string
}

// NewParser creates a parser that expands "$$" to pid.
func NewParser(pid, maxArgs int) *Parser {
	if maxArgs <= 0 {
		maxArgs = DefaultMaxArgs
	}
	return &Parser{PID: pid, MaxArgs: maxArgs}
}

// Parse parses line using the current process id and default limits.
func Parse(line string) (*Command, bool) {
	return NewParser(os.Getpid(), DefaultMaxArgs).Parse(line)
}

func (p *Parser) pidString() string {
	if p.pid == "" {
		p.pid = strconv.Itoa(p.PID)
	}
	return p.pid
}

// Expand copies line collapsing runs of spaces into one, dropping leading
// spaces and replacing every "$$" with the process id. Input after a NUL
// byte is ignored.
func (p *Parser) Expand(line string) string {
	if nul := strings.IndexByte(line, 0); nul >= 0 {
		line = line[:nul]
	}

	var out strings.Builder
	out.Grow(len(line))

	i := 0
	for i < len(line) {
		for i < len(line) && line[i] == ' ' {
			i++
		}

		for i < len(line) && line[i] != ' ' && line[i] != '$' {
			out.WriteByte(line[i])
			i++
		}

		switch {
		case i+1 < len(line) && line[i] == '$' && line[i+1] == '$':
			out.WriteString(p.pidString())
			i += 2
		case i < len(line) && line[i] == '$':
			out.WriteByte('$')
			i++
		}

		if i < len(line) && line[i] == ' ' {
			out.WriteByte(' ')
			i++
		}
	}

	return out.String()
}

// trimRight drops trailing spaces and newlines.
func trimRight(s string) string {
	return strings.TrimRight(s, " \n")
}

// Parse expands line and parses it into a command. The boolean is false if
// there is nothing to run: the line was blank or a comment.
func (p *Parser) Parse(line string) (*Command, bool) {
	s := trimRight(p.Expand(line))
	if s == "" || s[0] == commentMarker {
		return nil, false
	}

	cmd := &Command{}

	// A lone "&" is a command name, not an operator.
	if last := len(s) - 1; s[last] == '&' && last > 1 && s[last-1] == ' ' {
		cmd.Background = true
		s = s[:last-1]
	}

	argv, redirects := s, ""
	if idx := nextRedirect(s); idx >= 0 {
		argv, redirects = s[:idx], s[idx+1:]
	}
	cmd.Argv = p.splitArgs(argv)

	for redirects != "" {
		op := redirects[0]
		// The file name starts at the first non-space after the operator, so
		// an operator directly following another one is part of the name.
		body := strings.TrimLeft(redirects[1:], " ")

		var name string
		if idx := nextRedirect(body); idx >= 0 {
			name, redirects = body[:idx], body[idx+1:]
		} else {
			name, redirects = body, ""
		}

		name = trimRight(name)
		if name == "" {
			continue
		}

		if op == '<' {
			cmd.InputFile = name
		} else {
			cmd.OutputFile = name
		}
	}

	return cmd, true
}

// nextRedirect returns the index of the space that starts the first " > " or
// " < " in s, or -1.
func nextRedirect(s string) int {
	for i := 0; i+2 < len(s); i++ {
		if s[i] == ' ' && s[i+2] == ' ' && (s[i+1] == '>' || s[i+1] == '<') {
			return i
		}
	}
	return -1
}

func (p *Parser) splitArgs(s string) []string {
	maxTokens := p.MaxArgs + 1
	if p.MaxArgs <= 0 {
		maxTokens = DefaultMaxArgs + 1
	}

	var argv []string
	for _, tok := range strings.Split(s, " ") {
		if tok == "" {
			continue
		}
		if len(argv) == maxTokens {
			break
		}
		argv = append(argv, tok)
	}
	return argv
}
