package agentloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudcode/orchestrator/internal/taskdoc"
)

func report(statuses map[string]taskdoc.ReportStatus) taskdoc.ReportingDocument {
	doc := taskdoc.ReportingDocument{Tasks: map[string]taskdoc.TaskReport{}}
	for id, s := range statuses {
		doc.Tasks[id] = taskdoc.TaskReport{Status: s}
	}
	return doc
}

func TestSelectNextTask_DependencyGatesHigherPriority(t *testing.T) {
	a := taskdoc.Task{ID: "a", Priority: taskdoc.PriorityHigh}
	b := taskdoc.Task{ID: "b", Priority: taskdoc.PriorityCritical, DependsOn: []string{"a"}}
	pending := []taskdoc.Task{a, b}

	// Before a completes, critical b is ineligible and high a wins.
	next, ok := SelectNextTask(pending, report(nil))
	require.True(t, ok)
	assert.Equal(t, "a", next.ID)

	// Once a's report is completed, b becomes eligible (and a is
	// dropped as already terminal).
	next, ok = SelectNextTask(pending, report(map[string]taskdoc.ReportStatus{"a": taskdoc.ReportCompleted}))
	require.True(t, ok)
	assert.Equal(t, "b", next.ID)
}

func TestSelectNextTask_PriorityOrder(t *testing.T) {
	pending := []taskdoc.Task{
		{ID: "low", Priority: taskdoc.PriorityLow},
		{ID: "crit", Priority: taskdoc.PriorityCritical},
		{ID: "med", Priority: taskdoc.PriorityMedium},
	}

	next, ok := SelectNextTask(pending, report(nil))
	require.True(t, ok)
	assert.Equal(t, "crit", next.ID)
}

func TestSelectNextTask_TieBreaksByDocumentOrder(t *testing.T) {
	pending := []taskdoc.Task{
		{ID: "first", Priority: taskdoc.PriorityMedium},
		{ID: "second", Priority: taskdoc.PriorityMedium},
	}

	next, ok := SelectNextTask(pending, report(nil))
	require.True(t, ok)
	assert.Equal(t, "first", next.ID)
}

func TestSelectNextTask_SkipsTerminalReports(t *testing.T) {
	pending := []taskdoc.Task{
		{ID: "done", Priority: taskdoc.PriorityCritical},
		{ID: "failed", Priority: taskdoc.PriorityCritical},
		{ID: "blocked", Priority: taskdoc.PriorityCritical},
		{ID: "fresh", Priority: taskdoc.PriorityLow},
	}
	rep := report(map[string]taskdoc.ReportStatus{
		"done":    taskdoc.ReportCompleted,
		"failed":  taskdoc.ReportFailed,
		"blocked": taskdoc.ReportBlocked,
	})

	next, ok := SelectNextTask(pending, rep)
	require.True(t, ok)
	assert.Equal(t, "fresh", next.ID)
}

func TestSelectNextTask_NoneEligible(t *testing.T) {
	pending := []taskdoc.Task{
		{ID: "gated", Priority: taskdoc.PriorityCritical, DependsOn: []string{"never"}},
	}

	_, ok := SelectNextTask(pending, report(nil))
	assert.False(t, ok)

	_, ok = SelectNextTask(nil, report(nil))
	assert.False(t, ok)
}

func TestSelectNextTask_CancelledTasksNeverReachSelector(t *testing.T) {
	// GetPendingTasks filters to status=assigned, so a cancelled task
	// never appears in the pending slice the selector sees; an idle
	// agent simply finds nothing on its next cycle.
	ws := setupWorkspace(t)
	writeTask(t, ws, taskdoc.Task{ID: "t1", Status: taskdoc.TaskAssigned})
	require.NoError(t, taskdoc.CancelTask(ws, "t1"))

	pending, err := taskdoc.GetPendingTasks(ws)
	require.NoError(t, err)

	_, ok := SelectNextTask(pending, report(nil))
	assert.False(t, ok)
}
