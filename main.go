package main

import (
	"os"

	"github.com/TFMV/rankgraph/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
