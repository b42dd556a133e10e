package taskdoc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestWorkspace(t *testing.T) string {
	t.Helper()
	ws := t.TempDir()
	require.NoError(t, EnsureCloudCodeDir(ws))
	return ws
}

func TestWriteTask_CreatesDocumentWithSingleTask(t *testing.T) {
	ws := newTestWorkspace(t)
	task := Task{ID: "t1", Title: "Add health check", Priority: PriorityMedium, Branch: "cloud-code/issue-1"}

	require.NoError(t, WriteTask(ws, task))

	doc, err := ReadTaskingDocument(ws)
	require.NoError(t, err)
	require.Len(t, doc.Tasks, 1)
	require.Equal(t, "t1", doc.Tasks[0].ID)
	require.Equal(t, TaskAssigned, doc.Tasks[0].Status)
}

func TestWriteTask_ReplacesByID(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, WriteTask(ws, Task{ID: "t1", Title: "first"}))
	require.NoError(t, WriteTask(ws, Task{ID: "t1", Title: "second"}))

	doc, err := ReadTaskingDocument(ws)
	require.NoError(t, err)
	require.Len(t, doc.Tasks, 1)
	require.Equal(t, "second", doc.Tasks[0].Title)
}

func TestWriteTask_UpdatedAtMonotonic(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, WriteTask(ws, Task{ID: "t1"}))
	doc1, err := ReadTaskingDocument(ws)
	require.NoError(t, err)

	require.NoError(t, WriteTask(ws, Task{ID: "t2"}))
	doc2, err := ReadTaskingDocument(ws)
	require.NoError(t, err)

	require.True(t, doc2.UpdatedAt.After(doc1.UpdatedAt) || doc2.UpdatedAt.Equal(doc1.UpdatedAt))
}

func TestCancelTask_SetsStatusCancelled(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, WriteTask(ws, Task{ID: "t1"}))

	require.NoError(t, CancelTask(ws, "t1"))

	doc, err := ReadTaskingDocument(ws)
	require.NoError(t, err)
	require.Equal(t, TaskCancelled, doc.Tasks[0].Status)
}

func TestCancelTask_IdempotentSecondCallIsNoop(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, WriteTask(ws, Task{ID: "t1"}))

	require.NoError(t, CancelTask(ws, "t1"))
	require.NoError(t, CancelTask(ws, "t1"))

	doc, err := ReadTaskingDocument(ws)
	require.NoError(t, err)
	require.Len(t, doc.Tasks, 1)
	require.Equal(t, TaskCancelled, doc.Tasks[0].Status)
}

func TestCancelTask_UnknownIDReturnsNotFound(t *testing.T) {
	ws := newTestWorkspace(t)
	err := CancelTask(ws, "missing")
	require.True(t, errors.Is(err, ErrTaskNotFound))
}

func TestReadReport_MissingFileIsEmptyIdleDocument(t *testing.T) {
	ws := newTestWorkspace(t)
	doc, err := ReadReport(ws)
	require.NoError(t, err)
	require.Equal(t, AgentIdle, doc.Status)
	require.Empty(t, doc.Tasks)
}

func TestGetTaskStatus_UnknownIDReturnsNotFound(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, InitializeAgent(ws, "claude-code", "agent-1"))

	_, err := GetTaskStatus(ws, "missing")
	require.True(t, errors.Is(err, ErrTaskNotFound))
}

func TestReadTaskingDocument_EmptyParsesToZeroTasks(t *testing.T) {
	ws := newTestWorkspace(t)
	doc, err := ReadTaskingDocument(ws)
	require.NoError(t, err)
	require.Empty(t, doc.Tasks)
}
