package main

import (
	"os"

	"github.com/solatis/tripwire/cmd/tripwire/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
