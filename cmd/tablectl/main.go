// Package main provides the tablectl CLI.
package main

import (
	"os"

	"github.com/mesh-intelligence/tablecontrols/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
