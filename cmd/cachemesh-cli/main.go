// Package main provides the entry point for cachemesh-cli.
//
// cachemesh-cli is the command-line management tool for CacheMesh.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/cachemesh-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
