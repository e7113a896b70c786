// Command ersatz serves expectation files as a mock HTTP and WebSocket
// server.
package main

import (
	"context"
	"fmt"
	"os"
)

// Build-time variables set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
