package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "agentd",
	Short: "Cloud Code agent control loop",
	Long: `agentd runs inside a provisioned agent container and executes one
task at a time by reading the workspace's tasking document, invoking
the configured coding-tool adapter, and writing the outcome back into
the reporting document.`,
}

func init() {
	rootCmd.AddCommand(runCmd)
}
