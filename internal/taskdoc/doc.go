// Package taskdoc implements the tasking and reporting documents that
// form the only coordination channel between the orchestrator and an
// agent bound to a workspace. Each document is a single-writer,
// single-reader YAML file under "{workspace}/.cloud-code/".
package taskdoc

import "time"

// Priority is a task's scheduling priority, with a strict total order:
// PriorityCritical < PriorityHigh < PriorityMedium < PriorityLow.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank returns the priority's sort weight; lower sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// WorkspaceMode selects how the workspace manager provisions a task's
// checkout.
type WorkspaceMode string

const (
	WorkspaceShared      WorkspaceMode = "shared"
	WorkspaceIsolated    WorkspaceMode = "isolated"
	WorkspaceCopyOnWrite WorkspaceMode = "copy_on_write"
)

// TaskStatus is the orchestrator-writable status on a Task record.
// Only the orchestrator ever sets this field; "cancelled" is terminal.
type TaskStatus string

const (
	TaskAssigned  TaskStatus = "assigned"
	TaskCancelled TaskStatus = "cancelled"
)

// TaskContext carries hints the prompt builder and reviewer use.
type TaskContext struct {
	RelatedFiles []string `yaml:"related_files,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`
}

// Task is the unit of work the orchestrator writes into the tasking
// document. It is created by the event adapter and mutated only by the
// orchestrator.
type Task struct {
	ID                 string        `yaml:"id"`
	Title              string        `yaml:"title"`
	Description        string        `yaml:"description"`
	Branch             string        `yaml:"branch"`
	Priority           Priority      `yaml:"priority"`
	Status             TaskStatus    `yaml:"status"`
	DependsOn          []string      `yaml:"depends_on,omitempty"`
	AcceptanceCriteria []string      `yaml:"acceptance_criteria,omitempty"`
	Context            TaskContext   `yaml:"context"`
	WorkspaceMode      WorkspaceMode `yaml:"workspace_mode"`
}

// TaskingDocument is the orchestrator-owned document: the set of tasks
// assigned into a single workspace. The orchestrator is the single
// writer; the agent bound to the workspace is the single reader.
type TaskingDocument struct {
	Version   int       `yaml:"version"`
	UpdatedAt time.Time `yaml:"updated_at"`
	Workspace string    `yaml:"workspace"`
	Tasks     []Task    `yaml:"tasks"`
}

// ReportStatus is the agent-writable lifecycle status of a task report.
// Once a report reaches Completed, Failed, or Blocked no further
// transition is permitted (a violation returns ErrTerminalStatus).
type ReportStatus string

const (
	ReportWaiting    ReportStatus = "waiting"
	ReportReceived   ReportStatus = "received"
	ReportPlanning   ReportStatus = "planning"
	ReportInProgress ReportStatus = "in_progress"
	ReportBlocked    ReportStatus = "blocked"
	ReportCompleted  ReportStatus = "completed"
	ReportFailed     ReportStatus = "failed"
)

// terminal reports whether a ReportStatus is a terminal state: no
// further status transition may be written once reached.
func (s ReportStatus) terminal() bool {
	switch s {
	case ReportCompleted, ReportFailed, ReportBlocked:
		return true
	default:
		return false
	}
}

// AgentStatus is the top-level status of a reporting document.
type AgentStatus string

const (
	AgentIdle    AgentStatus = "idle"
	AgentWorking AgentStatus = "working"
	AgentError   AgentStatus = "error"
)

// ChangeType classifies one entry of a TaskReport's FilesModified list.
type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
)

// CriterionStatus tracks one acceptance criterion's progress.
type CriterionStatus string

const (
	CriterionPending    CriterionStatus = "pending"
	CriterionInProgress CriterionStatus = "in_progress"
	CriterionDone       CriterionStatus = "done"
	CriterionBlocked    CriterionStatus = "blocked"
)

// ProgressEntry is one append-only record of a task report's progress
// log. Entries are never rewritten or removed, only appended.
type ProgressEntry struct {
	Timestamp time.Time    `yaml:"timestamp"`
	Status    ReportStatus `yaml:"status"`
	Message   string       `yaml:"message"`
	Details   string       `yaml:"details,omitempty"`
}

// FileChange is one entry of a task report's FilesModified list.
type FileChange struct {
	Path         string     `yaml:"path"`
	ChangeType   ChangeType `yaml:"change_type"`
	LinesAdded   int        `yaml:"lines_added"`
	LinesRemoved int        `yaml:"lines_removed"`
}

// Commit is one git commit the agent made while working a task.
type Commit struct {
	SHA     string `yaml:"sha"`
	Message string `yaml:"message"`
}

// CredentialRequestStatus tracks an in-flight secret request.
type CredentialRequestStatus string

const (
	CredentialPending  CredentialRequestStatus = "pending"
	CredentialApproved CredentialRequestStatus = "approved"
	CredentialRejected CredentialRequestStatus = "rejected"
)

// CredentialRequest is an agent's ask for a credential it doesn't
// already have, surfaced to a human via the comment-command grammar.
type CredentialRequest struct {
	ID     string                  `yaml:"id"`
	Type   string                  `yaml:"type"`
	Scope  string                  `yaml:"scope"`
	Reason string                  `yaml:"reason"`
	Status CredentialRequestStatus `yaml:"status"`
}

// AcceptanceCriterionStatus pairs one acceptance criterion's text with
// its current status, in the same order as the Task's
// AcceptanceCriteria.
type AcceptanceCriterionStatus struct {
	Text   string          `yaml:"text"`
	Status CriterionStatus `yaml:"status"`
}

// TaskReport is the agent's view of one task: its own progress log,
// file/commit deltas, and terminal outcome. Initialized by the agent on
// startup, mutated only by the owning agent, read by the orchestrator.
type TaskReport struct {
	Status                   ReportStatus                `yaml:"status"`
	StartedAt                time.Time                   `yaml:"started_at,omitempty"`
	CurrentStep              string                      `yaml:"current_step,omitempty"`
	Progress                 []ProgressEntry             `yaml:"progress,omitempty"`
	FilesModified            []FileChange                `yaml:"files_modified,omitempty"`
	Commits                  []Commit                    `yaml:"commits,omitempty"`
	AcceptanceCriteriaStatus []AcceptanceCriterionStatus `yaml:"acceptance_criteria_status,omitempty"`
	Summary                  string                      `yaml:"summary,omitempty"`
	ChangesSummary           string                      `yaml:"changes_summary,omitempty"`
	Error                    string                      `yaml:"error,omitempty"`
	BlockedReason            string                      `yaml:"blocked_reason,omitempty"`
	CredentialRequests       []CredentialRequest         `yaml:"credential_requests,omitempty"`
}

// ReportingDocument is the agent-owned document: one report per task
// the agent has touched, plus the agent's own top-level status. The
// bound agent is the single writer; the orchestrator is the single
// reader.
type ReportingDocument struct {
	Version   int                   `yaml:"version"`
	AgentType string                `yaml:"agent_type"`
	AgentID   string                `yaml:"agent_id"`
	UpdatedAt time.Time             `yaml:"updated_at"`
	Status    AgentStatus           `yaml:"status"`
	Tasks     map[string]TaskReport `yaml:"tasks"`
}

// DocumentVersion is the schema version written into fresh documents by
// this package.
const DocumentVersion = 1
