package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudcode/orchestrator/internal/eventadapter"
	"github.com/cloudcode/orchestrator/internal/log"
	"github.com/cloudcode/orchestrator/internal/taskdoc"
)

// HandleCommand executes a parsed /cloud-code comment command against
// the task it was posted on. "run" (first dispatch) and "status" (a
// direct GetTaskStatus read) are handled by the caller rather than
// here, since they don't need an already-active task; "config" has no
// orchestrator-side state to mutate.
func (o *Orchestrator) HandleCommand(ctx context.Context, taskID string, cmd eventadapter.Command) error {
	switch cmd.Action {
	case eventadapter.ActionCancel:
		_, err := o.CancelTask(ctx, taskID)
		return err
	case eventadapter.ActionRetry:
		return o.RetryTask(ctx, taskID)
	case eventadapter.ActionHandoff:
		return o.HandoffTask(ctx, taskID, cmd.TargetAgent)
	case eventadapter.ActionApprove:
		return o.decideCredentialRequest(taskID, true)
	case eventadapter.ActionReject:
		log.Info(log.CatOrchestrator, "credential request rejected", "task_id", taskID, "reason", cmd.Reason)
		return o.decideCredentialRequest(taskID, false)
	default:
		return fmt.Errorf("command %q is not orchestrator-dispatched", cmd.Action)
	}
}

// decideCredentialRequest resolves whichever credential request is
// currently pending for taskID. Approval is driven via comment
// commands rather than a dedicated endpoint.
func (o *Orchestrator) decideCredentialRequest(taskID string, approved bool) error {
	at, ok := o.lookupActive(taskID)
	if !ok {
		return taskdoc.ErrTaskNotFound
	}
	requestID, found, err := taskdoc.PendingCredentialRequest(at.WorkspacePath, taskID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("resolve credential request for task %s: no pending request", taskID)
	}
	return taskdoc.ResolveCredentialRequest(at.WorkspacePath, taskID, requestID, approved)
}

// RetryTask re-dispatches a task that reached a terminal state by
// resetting its tasking-document status back to assigned. Retries are
// never automatic — only an operator's "/cloud-code retry" command
// re-enqueues a task, and it keeps the same id.
func (o *Orchestrator) RetryTask(ctx context.Context, taskID string) error {
	at, ok := o.lookupActive(taskID)
	if !ok {
		return taskdoc.ErrTaskNotFound
	}
	retryTask := at.Task
	retryTask.Status = taskdoc.TaskAssigned
	if err := taskdoc.WriteTask(at.WorkspacePath, retryTask); err != nil {
		return fmt.Errorf("retry task %s: %w", taskID, err)
	}
	o.mu.Lock()
	at.HandoffAttempts = 0
	o.mu.Unlock()
	log.Info(log.CatOrchestrator, "task retried", "task_id", taskID)
	return nil
}

// HandoffTask implements the operator-initiated "/cloud-code handoff
// <agent_type>" command: it provisions an agent of the requested type
// and re-dispatches the task to it immediately, independent of the
// automatic recommend_handoff bookkeeping in terminal.go (it still
// consumes one of the task's bounded handoff attempts, since
// redispatchForHandoff is the same underlying mechanism).
func (o *Orchestrator) HandoffTask(ctx context.Context, taskID, targetAgentType string) error {
	if targetAgentType == "" {
		return fmt.Errorf("handoff task %s: target agent type is required", taskID)
	}
	at, ok := o.lookupActive(taskID)
	if !ok {
		return taskdoc.ErrTaskNotFound
	}
	if !o.redispatchForHandoff(ctx, taskID, at, targetAgentType) {
		return fmt.Errorf("handoff task %s to %s failed", taskID, targetAgentType)
	}
	return nil
}
