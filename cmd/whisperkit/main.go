package main

import (
	"os"

	"whisperkit/cmd/whisperkit/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
