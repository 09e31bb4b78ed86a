// Package main is the entry point for the marketplace CLI.
package main

import (
	"os"

	"github.com/donaldgifford/marketplace/cmd/marketplace/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
