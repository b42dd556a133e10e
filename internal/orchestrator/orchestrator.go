package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cloudcode/orchestrator/internal/container"
	"github.com/cloudcode/orchestrator/internal/log"
	"github.com/cloudcode/orchestrator/internal/taskdoc"
	"github.com/cloudcode/orchestrator/internal/taskgraph"
	"github.com/cloudcode/orchestrator/internal/workspace"
)

// maxHandoffAttempts bounds how many additional dispatch attempts a
// blocked-with-handoff task gets before the orchestrator gives up and
// leaves it blocked for a human: exactly one extra attempt, so two
// tools that keep recommending each other can't ping-pong a task
// forever.
const maxHandoffAttempts = 1

// Orchestrator dispatches tasks into workspaces and agent containers
// and polls their reporting documents until each reaches a terminal
// status.
type Orchestrator struct {
	workspaces  *workspace.Manager
	provisioner *container.Provisioner
	audit       *AuditLog
	tracer      trace.Tracer

	mu     sync.Mutex
	active map[string]*ActiveTask

	pollInterval time.Duration

	monitorCancel context.CancelFunc
	monitorDone   chan struct{}
}

// New builds an Orchestrator. audit and tracer may be nil; a nil
// tracer falls back to the global no-op tracer.
func New(workspaces *workspace.Manager, provisioner *container.Provisioner, audit *AuditLog, tracer trace.Tracer, pollInterval time.Duration) *Orchestrator {
	if tracer == nil {
		tracer = otel.Tracer("cloudcode/orchestrator")
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Orchestrator{
		workspaces:   workspaces,
		provisioner:  provisioner,
		audit:        audit,
		tracer:       tracer,
		active:       make(map[string]*ActiveTask),
		pollInterval: pollInterval,
	}
}

// DispatchTask sets up a task's workspace, writes it into the tasking
// document, provisions (or reuses) an agent container for agentType,
// and begins tracking it as active.
func (o *Orchestrator) DispatchTask(ctx context.Context, task taskdoc.Task, owner, repo, agentType, cloneURL string, mode taskdoc.WorkspaceMode) (string, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.dispatch_task", trace.WithAttributes(
		attribute.String("task.id", task.ID),
		attribute.String("agent.type", agentType),
	))
	defer span.End()

	log.Info(log.CatOrchestrator, "dispatching task", "task_id", task.ID, "agent_type", agentType)

	info, err := o.workspaces.GetWorkspace(ctx, owner, repo, task.ID, task.Branch, "", cloneURL, mode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "workspace setup failed")
		return "", fmt.Errorf("setup workspace for task %s: %w", task.ID, err)
	}

	if err := checkDependencyDAG(info.Path, task); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "depends_on cycle rejected")
		return "", fmt.Errorf("dispatch task %s: %w", task.ID, err)
	}

	if err := taskdoc.WriteTask(info.Path, task); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write task failed")
		return "", fmt.Errorf("write task %s: %w", task.ID, err)
	}

	worker, err := o.provisioner.GetOrCreateAgent(ctx, agentType, info.Path)
	if err != nil {
		log.Warn(log.CatOrchestrator, "agent provisioning failed, retrying once", "task_id", task.ID, "error", err.Error())
		worker, err = o.provisioner.GetOrCreateAgent(ctx, agentType, info.Path)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provision agent failed")
		return "", fmt.Errorf("get or create agent for task %s: %w", task.ID, err)
	}

	o.mu.Lock()
	o.active[task.ID] = &ActiveTask{
		Task:          task,
		Worker:        worker,
		WorkspacePath: info.Path,
		RepoOwner:     owner,
		RepoName:      repo,
		AgentType:     agentType,
		WorkspaceMode: mode,
		CloneURL:      cloneURL,
		StartedAt:     time.Now().UTC(),
	}
	o.mu.Unlock()

	span.SetAttributes(attribute.String("container.id", worker.ContainerID))
	log.Info(log.CatOrchestrator, "task dispatched", "task_id", task.ID, "container_id", worker.ContainerID)
	return worker.ContainerID, nil
}

// GetTaskStatus reads the current TaskReport for an active task, or
// taskdoc.ErrTaskNotFound if it isn't tracked.
func (o *Orchestrator) GetTaskStatus(ctx context.Context, taskID string) (taskdoc.TaskReport, error) {
	at, ok := o.lookupActive(taskID)
	if !ok {
		return taskdoc.TaskReport{}, taskdoc.ErrTaskNotFound
	}
	return taskdoc.GetTaskStatus(at.WorkspacePath, taskID)
}

// CancelTask writes status=cancelled into the tasking document.
// Cancellation is cooperative: an in-flight coding-tool subprocess is
// never interrupted, so the task may still complete before the agent
// loop next reads the tasking document.
func (o *Orchestrator) CancelTask(ctx context.Context, taskID string) (bool, error) {
	at, ok := o.lookupActive(taskID)
	if !ok {
		log.Warn(log.CatOrchestrator, "cancel requested for unknown task", "task_id", taskID)
		return false, nil
	}

	if err := taskdoc.CancelTask(at.WorkspacePath, taskID); err != nil {
		return false, fmt.Errorf("cancel task %s: %w", taskID, err)
	}
	log.Info(log.CatOrchestrator, "task cancelled", "task_id", taskID)
	return true, nil
}

// GetActiveTasks returns a snapshot of every task the orchestrator is
// still monitoring.
func (o *Orchestrator) GetActiveTasks() []Summary {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Summary, 0, len(o.active))
	for id, at := range o.active {
		out = append(out, Summary{
			TaskID:    id,
			AgentType: at.AgentType,
			CodingCLI: at.Worker.CodingTool,
			Repo:      fmt.Sprintf("%s/%s", at.RepoOwner, at.RepoName),
			StartedAt: at.StartedAt,
		})
	}
	return out
}

// checkDependencyDAG rebuilds the depends_on graph across every task
// already in the workspace's tasking document plus the one about to be
// dispatched, and rejects the dispatch if that addition would
// introduce a cycle. Cycle detection happens here, at dispatch time —
// the agent-side selector assumes depends_on is already a DAG.
func checkDependencyDAG(workspacePath string, task taskdoc.Task) error {
	doc, err := taskdoc.ReadTaskingDocument(workspacePath)
	if err != nil {
		return fmt.Errorf("load tasking document for cycle check: %w", err)
	}

	edges := make(map[string][]string, len(doc.Tasks)+1)
	for _, t := range doc.Tasks {
		if t.ID == task.ID {
			continue
		}
		edges[t.ID] = t.DependsOn
	}
	edges[task.ID] = task.DependsOn

	return taskgraph.FromDependsOn(edges).DetectCycle()
}

func (o *Orchestrator) lookupActive(taskID string) (*ActiveTask, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	at, ok := o.active[taskID]
	return at, ok
}
