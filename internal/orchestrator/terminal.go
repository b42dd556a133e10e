package orchestrator

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cloudcode/orchestrator/internal/log"
	"github.com/cloudcode/orchestrator/internal/taskdoc"
)

const handoffMarker = "recommend_handoff:"

// handleTaskCompletion branches on the report's terminal status, runs
// the matching hook, and stops tracking the task — unless a handoff
// hook decides to re-dispatch it instead.
func (o *Orchestrator) handleTaskCompletion(ctx context.Context, taskID string, at *ActiveTask, report taskdoc.TaskReport) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.terminal_event", trace.WithAttributes(
		attribute.String("task.id", taskID),
		attribute.String("report.status", string(report.Status)),
	))
	defer span.End()

	log.Info(log.CatOrchestrator, "task finished", "task_id", taskID, "status", report.Status)

	switch report.Status {
	case taskdoc.ReportCompleted:
		o.onTaskCompleted(taskID, at, report)
		o.removeActive(taskID)
	case taskdoc.ReportFailed:
		o.onTaskFailed(taskID, at, report)
		o.removeActive(taskID)
	case taskdoc.ReportBlocked:
		redispatched := o.onTaskBlocked(ctx, taskID, at, report)
		if !redispatched {
			o.removeActive(taskID)
		}
	}
}

func (o *Orchestrator) onTaskCompleted(taskID string, at *ActiveTask, report taskdoc.TaskReport) {
	log.Info(log.CatOrchestrator, "task completed successfully",
		"task_id", taskID, "files_modified", len(report.FilesModified), "commits", len(report.Commits))

	if o.audit != nil {
		o.audit.Record(AuditEvent{
			TaskID:        taskID,
			Status:        string(report.Status),
			AgentType:     at.AgentType,
			FilesModified: len(report.FilesModified),
			Commits:       len(report.Commits),
		})
	}
}

func (o *Orchestrator) onTaskFailed(taskID string, at *ActiveTask, report taskdoc.TaskReport) {
	log.Error(log.CatOrchestrator, "task failed", "task_id", taskID, "error", report.Error)

	if o.audit != nil {
		o.audit.Record(AuditEvent{
			TaskID:    taskID,
			Status:    string(report.Status),
			AgentType: at.AgentType,
			Error:     report.Error,
		})
	}
}

// onTaskBlocked handles a blocked report. If the block carries a
// handoff request ("recommend_handoff:{tool}") and the task hasn't
// already used its one allotted re-dispatch, it provisions an agent
// for the alternative tool and re-dispatches in place, returning true.
// Otherwise it records the block as terminal and returns false.
func (o *Orchestrator) onTaskBlocked(ctx context.Context, taskID string, at *ActiveTask, report taskdoc.TaskReport) bool {
	log.Warn(log.CatOrchestrator, "task blocked", "task_id", taskID, "reason", report.BlockedReason)

	target, isHandoff := parseHandoffTarget(report.BlockedReason)
	if isHandoff && at.HandoffAttempts < maxHandoffAttempts {
		if o.redispatchForHandoff(ctx, taskID, at, target) {
			return true
		}
	}

	if o.audit != nil {
		handoffTarget := ""
		if isHandoff {
			handoffTarget = target
		}
		o.audit.Record(AuditEvent{
			TaskID:        taskID,
			Status:        string(report.Status),
			AgentType:     at.AgentType,
			BlockedReason: report.BlockedReason,
			HandoffTarget: handoffTarget,
		})
	}
	return false
}

func parseHandoffTarget(blockedReason string) (target string, ok bool) {
	idx := strings.Index(blockedReason, handoffMarker)
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(blockedReason[idx+len(handoffMarker):]), true
}

// redispatchForHandoff provisions (or reuses) an agent for the
// suggested alternative coding tool and writes the task back into the
// tasking document with its status reset to assigned, so the new
// agent picks it up on its next poll. The new container's agentd
// entrypoint calling taskdoc.InitializeAgent on startup is what clears
// the old (terminal, blocked) report for this workspace — the
// orchestrator does not clear or rewrite the report itself; its only
// write into the reporting document is a credential request's status,
// via taskdoc.ResolveCredentialRequest.
func (o *Orchestrator) redispatchForHandoff(ctx context.Context, taskID string, at *ActiveTask, target string) bool {
	log.Info(log.CatOrchestrator, "handoff requested", "task_id", taskID, "target", target)

	worker, err := o.provisioner.GetOrCreateAgent(ctx, target, at.WorkspacePath)
	if err != nil {
		log.Warn(log.CatOrchestrator, "handoff re-provision failed, leaving task blocked", "task_id", taskID, "target", target, "error", err.Error())
		return false
	}

	retryTask := at.Task
	retryTask.Status = taskdoc.TaskAssigned
	if err := taskdoc.WriteTask(at.WorkspacePath, retryTask); err != nil {
		log.Warn(log.CatOrchestrator, "handoff re-dispatch write failed, leaving task blocked", "task_id", taskID, "error", err.Error())
		return false
	}

	o.mu.Lock()
	at.Worker = worker
	at.AgentType = target
	at.HandoffAttempts++
	o.mu.Unlock()

	log.Info(log.CatOrchestrator, "task re-dispatched after handoff", "task_id", taskID, "new_tool", target, "attempt", at.HandoffAttempts)
	return true
}
