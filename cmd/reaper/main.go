package main

import (
	"os"

	"github.com/psantana5/compute-reaper/cmd/reaper/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
