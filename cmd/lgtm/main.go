// Package main is the entry point for lgtm.
package main

import (
	"os"

	"github.com/pokgak/lgtm-cli/cmd/lgtm/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
