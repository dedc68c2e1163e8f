package main

import (
	"os"

	"github.com/synapse-cir/cirrepair/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
