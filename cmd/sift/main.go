// Package main is the entry point for the sift CLI.
package main

import (
	"os"

	"github.com/runger/sift/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
