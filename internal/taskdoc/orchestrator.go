package taskdoc

import (
	"fmt"
	"time"

	"github.com/cloudcode/orchestrator/internal/log"
)

// ErrTaskNotFound is returned by GetTaskStatus and CancelTask when no
// report or task with the given id exists.
var ErrTaskNotFound = fmt.Errorf("task not found")

// ReadTaskingDocument loads the tasking document for a workspace. A
// missing document is returned as an empty, unversioned
// TaskingDocument rather than an error.
func ReadTaskingDocument(workspacePath string) (TaskingDocument, error) {
	var doc TaskingDocument
	notFound, err := readYAML(taskingPath(workspacePath), &doc)
	if err != nil {
		return TaskingDocument{}, err
	}
	if notFound {
		return TaskingDocument{Workspace: workspacePath}, nil
	}
	return doc, nil
}

// WriteTask loads-or-inits the tasking document, replaces the record
// matching task.ID (or appends it if new), bumps updated_at, and
// atomically replaces the document. The orchestrator is this
// document's only writer.
func WriteTask(workspacePath string, task Task) error {
	doc, err := ReadTaskingDocument(workspacePath)
	if err != nil {
		return err
	}
	if doc.Version == 0 {
		doc.Version = DocumentVersion
	}
	doc.Workspace = workspacePath
	if task.Status == "" {
		task.Status = TaskAssigned
	}

	replaced := false
	for i := range doc.Tasks {
		if doc.Tasks[i].ID == task.ID {
			doc.Tasks[i] = task
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Tasks = append(doc.Tasks, task)
	}
	doc.UpdatedAt = monotonicNow(doc.UpdatedAt)

	if err := atomicWriteYAML(taskingPath(workspacePath), doc); err != nil {
		return err
	}
	log.Info(log.CatTaskDoc, "task written", "task_id", task.ID, "workspace", workspacePath)
	return nil
}

// CancelTask sets status=cancelled on the task record matching id.
// Cancellation is terminal: the orchestrator never re-assigns a
// cancelled id.
func CancelTask(workspacePath, id string) error {
	doc, err := ReadTaskingDocument(workspacePath)
	if err != nil {
		return err
	}

	found := false
	for i := range doc.Tasks {
		if doc.Tasks[i].ID == id {
			doc.Tasks[i].Status = TaskCancelled
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("cancel task %s: %w", id, ErrTaskNotFound)
	}
	doc.UpdatedAt = monotonicNow(doc.UpdatedAt)

	if err := atomicWriteYAML(taskingPath(workspacePath), doc); err != nil {
		return err
	}
	log.Info(log.CatTaskDoc, "task cancelled", "task_id", id, "workspace", workspacePath)
	return nil
}

// ReadReport loads the reporting document for a workspace. A missing
// document is returned as an empty, idle ReportingDocument.
func ReadReport(workspacePath string) (ReportingDocument, error) {
	var doc ReportingDocument
	notFound, err := readYAML(reportingPath(workspacePath), &doc)
	if err != nil {
		return ReportingDocument{}, err
	}
	if notFound {
		return ReportingDocument{Status: AgentIdle, Tasks: map[string]TaskReport{}}, nil
	}
	if doc.Tasks == nil {
		doc.Tasks = map[string]TaskReport{}
	}
	return doc, nil
}

// GetTaskStatus returns the TaskReport for id, or ErrTaskNotFound if
// the agent hasn't reported on that task yet.
func GetTaskStatus(workspacePath, id string) (TaskReport, error) {
	doc, err := ReadReport(workspacePath)
	if err != nil {
		return TaskReport{}, err
	}
	report, ok := doc.Tasks[id]
	if !ok {
		return TaskReport{}, fmt.Errorf("get status for %s: %w", id, ErrTaskNotFound)
	}
	return report, nil
}

// ResolveCredentialRequest flips a pending CredentialRequest's status
// to approved or rejected, driven by an operator's "/cloud-code
// approve"/"reject" comment command. This is the one sanctioned
// orchestrator write into the agent-owned reporting document: it only
// ever touches a CredentialRequest's status field, never any other
// part of the report, so the agent stays the sole writer of everything
// else in the document.
func ResolveCredentialRequest(workspacePath, taskID, requestID string, approved bool) error {
	doc, err := ReadReport(workspacePath)
	if err != nil {
		return err
	}
	report, ok := doc.Tasks[taskID]
	if !ok {
		return fmt.Errorf("resolve credential request for task %s: %w", taskID, ErrTaskNotFound)
	}

	status := CredentialRejected
	if approved {
		status = CredentialApproved
	}

	found := false
	for i := range report.CredentialRequests {
		if report.CredentialRequests[i].ID == requestID {
			report.CredentialRequests[i].Status = status
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("resolve credential request %s: %w", requestID, ErrTaskNotFound)
	}

	doc.Tasks[taskID] = report
	doc.UpdatedAt = monotonicNow(doc.UpdatedAt)

	if err := atomicWriteYAML(reportingPath(workspacePath), doc); err != nil {
		return err
	}
	log.Info(log.CatTaskDoc, "credential request resolved", "task_id", taskID, "request_id", requestID, "approved", approved)
	return nil
}

// PendingCredentialRequest returns the id of the first pending
// CredentialRequest for taskID, if any. The "/cloud-code
// approve"/"reject" comment commands carry no request id of their
// own, so the orchestrator resolves whichever request is currently
// awaiting a decision.
func PendingCredentialRequest(workspacePath, taskID string) (string, bool, error) {
	report, err := GetTaskStatus(workspacePath, taskID)
	if err != nil {
		return "", false, err
	}
	for _, cr := range report.CredentialRequests {
		if cr.Status == CredentialPending {
			return cr.ID, true, nil
		}
	}
	return "", false, nil
}

// monotonicNow returns a timestamp strictly after prev, so
// document-level updated_at is monotonic per writer even under a
// coarse system clock.
func monotonicNow(prev time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}
