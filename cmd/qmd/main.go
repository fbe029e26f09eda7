package main

import (
	"os"

	"github.com/qmd-dev/qmd/cmd/qmd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
