package main

import (
	"os"

	"github.com/pmrun/pmrun/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
