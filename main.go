package main

import (
	"os"

	"github.com/tanpawarit/Chative-Commerce-Relay/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
