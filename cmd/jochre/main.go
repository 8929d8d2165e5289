// Package main provides the entry point for the jochre CLI.
package main

import (
	"fmt"
	"os"

	"github.com/urieli/jochre-sub004/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
