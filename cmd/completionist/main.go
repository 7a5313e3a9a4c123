package main

import (
	"os"

	"github.com/completionist-ai/completionist/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
