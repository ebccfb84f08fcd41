package shell

import "fmt"

// Command is the parsed form of a single input line.
type Command struct {
	// Argv holds the program name followed by its arguments. It is never empty.
	Argv []string
	// Background is set if the line ended in a standalone "&".
	Background bool
	// InputFile is the path given with "<", empty for the default stream.
	InputFile string
	// OutputFile is the path given with ">", empty for the default stream.
	OutputFile string
}

// Name returns the program name.
func (c *Command) Name() string {
	return c.Argv[0]
}

// String returns a one line dump of the command, used for debugging.
func (c *Command) String() string {
	return fmt.Sprintf("argv=%q background=%t input=%q output=%q",
		c.Argv, c.Background, c.InputFile, c.OutputFile)
}
