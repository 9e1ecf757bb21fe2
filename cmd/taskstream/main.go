package main

import (
	"fmt"
	"os"
)

// Version information, injected at build time.
var (
	Version = "0.1.0-dev"
	Commit  = "none"
)

func main() {
	root := NewRootCmd()
	root.Version = Version + " (" + Commit + ")"
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
