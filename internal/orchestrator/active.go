// Package orchestrator dispatches tasks into provisioned workspaces
// and agent containers, then polls each task's reporting document
// until it reaches a terminal status. It owns no coordination channel
// of its own — everything it learns about a dispatched task comes from
// re-reading the same tasking/reporting documents the agent loop
// writes.
package orchestrator

import (
	"time"

	"github.com/cloudcode/orchestrator/internal/container"
	"github.com/cloudcode/orchestrator/internal/taskdoc"
)

// ActiveTask tracks one dispatched task the orchestrator is still
// monitoring for completion.
type ActiveTask struct {
	Task            taskdoc.Task
	Worker          *container.Worker
	WorkspacePath   string
	RepoOwner       string
	RepoName        string
	AgentType       string
	WorkspaceMode   taskdoc.WorkspaceMode
	CloneURL        string
	StartedAt       time.Time
	HandoffAttempts int
}

// Summary is the read-only view GetActiveTasks returns.
type Summary struct {
	TaskID    string
	AgentType string
	CodingCLI string
	Repo      string
	StartedAt time.Time
}
