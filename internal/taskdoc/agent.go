package taskdoc

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cloudcode/orchestrator/internal/log"
)

// ErrTerminalStatus is returned when a caller attempts to transition a
// task report that has already reached a terminal status (completed,
// failed, blocked). Per spec, report status transitions are monotonic.
var ErrTerminalStatus = fmt.Errorf("task report already in a terminal status")

// ReadTasks loads the tasking document bound to a workspace. It is the
// agent-side name for the same read the orchestrator uses to load its
// own document before mutating it.
func ReadTasks(workspacePath string) (TaskingDocument, error) {
	return ReadTaskingDocument(workspacePath)
}

// GetPendingTasks returns the tasks in the tasking document whose
// status is "assigned" — the only status an agent is allowed to pick
// up work from.
func GetPendingTasks(workspacePath string) ([]Task, error) {
	doc, err := ReadTasks(workspacePath)
	if err != nil {
		return nil, err
	}
	pending := make([]Task, 0, len(doc.Tasks))
	for _, t := range doc.Tasks {
		if t.Status == TaskAssigned {
			pending = append(pending, t)
		}
	}
	return pending, nil
}

// InitializeAgent writes a fresh reporting document for a newly started
// agent, with an empty task map. Safe to call even if a stale document
// from a prior agent instance exists at the same path — it's
// unconditionally replaced.
func InitializeAgent(workspacePath, agentType, agentID string) error {
	doc := ReportingDocument{
		Version:   DocumentVersion,
		AgentType: agentType,
		AgentID:   agentID,
		UpdatedAt: time.Now().UTC(),
		Status:    AgentIdle,
		Tasks:     map[string]TaskReport{},
	}
	if err := atomicWriteYAML(reportingPath(workspacePath), doc); err != nil {
		return err
	}
	log.Info(log.CatTaskDoc, "agent initialized", "agent_type", agentType, "agent_id", agentID)
	return nil
}

// mutateReport loads the reporting document, applies fn to the report
// for id (starting from its zero value if absent), and atomically
// writes the document back. agentStatus is the top-level status to set
// for the whole document after the mutation.
func mutateReport(workspacePath, id string, agentStatus AgentStatus, fn func(*TaskReport) error) error {
	doc, err := ReadReport(workspacePath)
	if err != nil {
		return err
	}
	report := doc.Tasks[id]
	if report.Status.terminal() {
		return fmt.Errorf("update task %s: %w", id, ErrTerminalStatus)
	}
	if err := fn(&report); err != nil {
		return err
	}
	doc.Tasks[id] = report
	doc.Status = agentStatus
	doc.UpdatedAt = monotonicNow(doc.UpdatedAt)

	return atomicWriteYAML(reportingPath(workspacePath), doc)
}

// UpdateStatus appends a progress entry to task id's report, refreshes
// current_step, and flips the document's top-level status to "working"
// iff newStatus is "in_progress", else "idle".
func UpdateStatus(workspacePath, id string, newStatus ReportStatus, msg, details string) error {
	agentStatus := AgentIdle
	if newStatus == ReportInProgress {
		agentStatus = AgentWorking
	}

	return mutateReport(workspacePath, id, agentStatus, func(r *TaskReport) error {
		if r.StartedAt.IsZero() {
			r.StartedAt = time.Now().UTC()
		}
		r.Status = newStatus
		r.CurrentStep = msg
		r.Progress = append(r.Progress, ProgressEntry{
			Timestamp: time.Now().UTC(),
			Status:    newStatus,
			Message:   msg,
			Details:   details,
		})
		return nil
	})
}

// SetTaskCompleted is the terminal transition helper for a
// successfully finished task.
func SetTaskCompleted(workspacePath, id, summary, changesSummary string, filesModified []FileChange, commits []Commit) error {
	return mutateReport(workspacePath, id, AgentIdle, func(r *TaskReport) error {
		r.Status = ReportCompleted
		r.Summary = summary
		r.ChangesSummary = changesSummary
		r.FilesModified = filesModified
		r.Commits = commits
		r.Progress = append(r.Progress, ProgressEntry{
			Timestamp: time.Now().UTC(),
			Status:    ReportCompleted,
			Message:   summary,
		})
		return nil
	})
}

// SetTaskFailed is the terminal transition helper for a task that
// raised an error the agent could not recover from.
func SetTaskFailed(workspacePath, id, errMsg string) error {
	return mutateReport(workspacePath, id, AgentIdle, func(r *TaskReport) error {
		r.Status = ReportFailed
		r.Error = errMsg
		r.Progress = append(r.Progress, ProgressEntry{
			Timestamp: time.Now().UTC(),
			Status:    ReportFailed,
			Message:   errMsg,
		})
		return nil
	})
}

// SetTaskBlocked is the terminal transition helper for a task the
// agent cannot continue without external input (credential grant,
// handoff to another tool, clarification).
func SetTaskBlocked(workspacePath, id, reason string) error {
	return mutateReport(workspacePath, id, AgentIdle, func(r *TaskReport) error {
		r.Status = ReportBlocked
		r.BlockedReason = reason
		r.Progress = append(r.Progress, ProgressEntry{
			Timestamp: time.Now().UTC(),
			Status:    ReportBlocked,
			Message:   reason,
		})
		return nil
	})
}

// RequestCredential appends a pending CredentialRequest to task id's
// report and returns its generated request id. The request is later
// resolved out-of-band, by a human issuing an "approve"/"reject"
// comment command that the orchestrator translates into a credential
// grant or denial.
func RequestCredential(workspacePath, id, credType, scope, reason string) (string, error) {
	requestID := uuid.NewString()
	err := mutateReport(workspacePath, id, AgentIdle, func(r *TaskReport) error {
		r.CredentialRequests = append(r.CredentialRequests, CredentialRequest{
			ID:     requestID,
			Type:   credType,
			Scope:  scope,
			Reason: reason,
			Status: CredentialPending,
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return requestID, nil
}
