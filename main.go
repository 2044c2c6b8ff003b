package main

import (
	"os"

	"github.com/nanovms/ldemul/cmd"
)

func main() {
	if err := cmd.GetRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
