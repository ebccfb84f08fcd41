package main

import (
	"os"

	"github.com/josephlewis42/smallsh/cmd"
	"github.com/josephlewis42/smallsh/core/spawn"
)

func main() {
	// Children are started through this binary, see package spawn.
	if spawn.IsChild(os.Args) {
		spawn.Main(os.Args)
	}

	cmd.Execute()
}
