// Command agentd runs a single agent control loop inside a
// provisioned container: poll the tasking document, execute the
// eligible task through a coding-tool adapter, write the outcome into
// the reporting document, repeat until stopped. See run.go.
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
