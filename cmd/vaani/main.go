package main

import (
	"os"

	"github.com/msto63/vaani/cmd/vaani/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
