// Command orchestratord runs the Cloud Code supervisor: it watches
// every active task's reporting document and drives dispatch,
// handoff, and terminal-state bookkeeping. See serve.go for the
// command that actually starts the loop.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
