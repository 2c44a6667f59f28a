package main

import (
	"github.com/KomaVR/KXS-Osint-Soft/cmd"
)

// main is the entry point for the kxs CLI application.
func main() {
	// Execute the root command defined in the cmd package. It handles all
	// command-line parsing, configuration, and execution.
	cmd.Execute()
}
