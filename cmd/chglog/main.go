package main

import (
	"os"

	"github.com/ariel-frischer/chglog/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
