package taskdoc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitializeAgent_WritesEmptyTaskMap(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, InitializeAgent(ws, "claude-code", "agent-1"))

	doc, err := ReadReport(ws)
	require.NoError(t, err)
	require.Equal(t, "claude-code", doc.AgentType)
	require.Equal(t, "agent-1", doc.AgentID)
	require.Equal(t, AgentIdle, doc.Status)
	require.Empty(t, doc.Tasks)
}

func TestGetPendingTasks_OnlyAssignedStatus(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, WriteTask(ws, Task{ID: "t1", Status: TaskAssigned}))
	require.NoError(t, WriteTask(ws, Task{ID: "t2", Status: TaskAssigned}))
	require.NoError(t, CancelTask(ws, "t2"))

	pending, err := GetPendingTasks(ws)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "t1", pending[0].ID)
}

func TestUpdateStatus_AppendsProgressAndSetsWorking(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, InitializeAgent(ws, "claude-code", "agent-1"))

	require.NoError(t, UpdateStatus(ws, "t1", ReportInProgress, "implementing", ""))

	doc, err := ReadReport(ws)
	require.NoError(t, err)
	require.Equal(t, AgentWorking, doc.Status)
	report := doc.Tasks["t1"]
	require.Equal(t, ReportInProgress, report.Status)
	require.Equal(t, "implementing", report.CurrentStep)
	require.Len(t, report.Progress, 1)
}

func TestUpdateStatus_NonInProgressSetsIdle(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, InitializeAgent(ws, "claude-code", "agent-1"))

	require.NoError(t, UpdateStatus(ws, "t1", ReportPlanning, "planning", ""))

	doc, err := ReadReport(ws)
	require.NoError(t, err)
	require.Equal(t, AgentIdle, doc.Status)
}

func TestSetTaskCompleted_TerminalTransition(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, InitializeAgent(ws, "claude-code", "agent-1"))
	require.NoError(t, UpdateStatus(ws, "t1", ReportInProgress, "working", ""))

	files := []FileChange{{Path: "health.go", ChangeType: ChangeCreated, LinesAdded: 10}}
	commits := []Commit{{SHA: "abc1234", Message: "feat: add health check"}}
	require.NoError(t, SetTaskCompleted(ws, "t1", "Done.", "added health.go", files, commits))

	report, err := GetTaskStatus(ws, "t1")
	require.NoError(t, err)
	require.Equal(t, ReportCompleted, report.Status)
	require.Equal(t, files, report.FilesModified)
	require.Equal(t, commits, report.Commits)
}

func TestTerminalStatus_RejectsFurtherTransitions(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, InitializeAgent(ws, "claude-code", "agent-1"))
	require.NoError(t, SetTaskFailed(ws, "t1", "boom"))

	err := UpdateStatus(ws, "t1", ReportInProgress, "retry", "")
	require.True(t, errors.Is(err, ErrTerminalStatus))

	err = SetTaskCompleted(ws, "t1", "", "", nil, nil)
	require.True(t, errors.Is(err, ErrTerminalStatus))
}

func TestSetTaskCompleted_ZeroFileChangesStillCompletes(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, InitializeAgent(ws, "claude-code", "agent-1"))

	require.NoError(t, SetTaskCompleted(ws, "t1", "no-op run", "", nil, nil))

	report, err := GetTaskStatus(ws, "t1")
	require.NoError(t, err)
	require.Equal(t, ReportCompleted, report.Status)
	require.Empty(t, report.FilesModified)
	require.Zero(t, len(report.Commits))
}

func TestSetTaskBlocked_RecordsHandoffReason(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, InitializeAgent(ws, "claude-code", "agent-1"))

	require.NoError(t, SetTaskBlocked(ws, "t1", "recommend_handoff:aider"))

	report, err := GetTaskStatus(ws, "t1")
	require.NoError(t, err)
	require.Equal(t, ReportBlocked, report.Status)
	require.Equal(t, "recommend_handoff:aider", report.BlockedReason)
}

func TestCancelTask_DoesNotTouchReportingDocument(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, WriteTask(ws, Task{ID: "t1"}))
	require.NoError(t, InitializeAgent(ws, "claude-code", "agent-1"))

	require.NoError(t, CancelTask(ws, "t1"))

	doc, err := ReadReport(ws)
	require.NoError(t, err)
	_, exists := doc.Tasks["t1"]
	require.False(t, exists)
}

func TestRequestCredential_AppendsPendingRequest(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, InitializeAgent(ws, "claude-code", "agent-1"))

	reqID, err := RequestCredential(ws, "t1", "github", "repo:write", "need push access")
	require.NoError(t, err)
	require.NotEmpty(t, reqID)

	report, err := GetTaskStatus(ws, "t1")
	require.NoError(t, err)
	require.Len(t, report.CredentialRequests, 1)
	require.Equal(t, reqID, report.CredentialRequests[0].ID)
	require.Equal(t, CredentialPending, report.CredentialRequests[0].Status)
}
