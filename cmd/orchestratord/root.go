package main

import "github.com/spf13/cobra"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "orchestratord",
	Short: "Cloud Code orchestrator daemon",
	Long: `orchestratord dispatches tasks into per-task workspaces and agent
containers, then polls their reporting documents until each task
reaches a terminal status.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a config file (optional; env vars always apply)")
	rootCmd.AddCommand(serveCmd)
}
