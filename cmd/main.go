package main

import (
	"os"

	"github.com/Leganyst/appointment-queue/cmd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
