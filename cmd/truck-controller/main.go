package main

import (
	"fmt"
	"os"

	"github.com/osavioguedes/autonomous-vehicle/internal/adapters/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "truck-controller: %v\n", err)
		os.Exit(1)
	}
}
