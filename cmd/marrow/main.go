// Package main is the entry point for the marrow CLI.
package main

import (
	"fmt"
	"os"

	"github.com/marrow/marrow/internal/cli"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return cli.NewRoot(version).Execute()
}
