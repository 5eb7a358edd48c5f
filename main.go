package main

import (
	"os"

	"github.com/iterative/telemetry-go/cmd/root"
)

func main() {
	if err := root.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
