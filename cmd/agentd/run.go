package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudcode/orchestrator/internal/agentloop"
	"github.com/cloudcode/orchestrator/internal/codingtool"
	"github.com/cloudcode/orchestrator/internal/log"
	"github.com/cloudcode/orchestrator/internal/workspace"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent loop against WORKSPACE until stopped",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	workspacePath := os.Getenv("WORKSPACE")
	if workspacePath == "" {
		return fmt.Errorf("agentd: WORKSPACE environment variable is required")
	}
	agentType := envOrDefault("AGENT_TYPE", "backend")
	agentID := envOrDefault("AGENT_ID", agentType+"-0")
	codingCLI := envOrDefault("CODING_CLI", "claude-code")
	idlePoll := envDurationSeconds("IDLE_POLL_INTERVAL_SECONDS", 10)
	timeoutSeconds := envInt("AGENT_TIMEOUT_SECONDS", 3600)

	closeLog, err := log.Init(filepath.Join(os.TempDir(), "agentd.log"), 500)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeLog()
	log.SetEnabled(true)

	tools := codingtool.NewRegistry()
	tool, err := tools.Get(codingCLI)
	if err != nil {
		return fmt.Errorf("agentd: %w", err)
	}

	loop := agentloop.New(agentloop.Config{
		WorkspacePath:       workspacePath,
		AgentType:           agentType,
		AgentID:             agentID,
		Tool:                tool,
		Git:                 workspace.SubprocessGitRunner{},
		IdlePollInterval:    idlePoll,
		AgentTimeoutSeconds: timeoutSeconds,
	})

	if err := loop.Start(); err != nil {
		return fmt.Errorf("start agent loop: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info(log.CatAgent, "agentd started", "agent_id", agentID, "agent_type", agentType, "coding_cli", codingCLI)
	<-ctx.Done()
	log.Info(log.CatAgent, "agentd shutting down", "agent_id", agentID)
	loop.Stop()
	return nil
}

func envOrDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDurationSeconds(name string, fallbackSeconds float64) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return time.Duration(fallbackSeconds * float64(time.Second))
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return time.Duration(fallbackSeconds * float64(time.Second))
	}
	return time.Duration(f * float64(time.Second))
}
