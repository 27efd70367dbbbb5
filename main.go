package main

import (
	"github.com/flashware/flashcheck/cmd"
	"github.com/flashware/flashcheck/pkg/logger"
)

// Overridden at build time via -ldflags.
var version = "1.0.0"

func main() {
	if err := cmd.Execute(version); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}
