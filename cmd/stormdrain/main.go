// Command stormdrain runs a linked-view dataflow session headless.
//
// It reads records as JSON lines, applies the view limits given on the
// command line through the axis-link coordinator and prints the rows that
// pass the bounds filter.
package main

import (
	"os"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		return 1
	}
	return 0
}
