// Package agentloop implements the agent control loop: the loop
// running inside each worker container that selects the next eligible
// task, executes it through a codingtool.Tool, and reports progress
// and terminal outcomes via taskdoc.
package agentloop

import (
	"sort"

	"github.com/cloudcode/orchestrator/internal/taskdoc"
	"github.com/cloudcode/orchestrator/internal/taskgraph"
)

// SelectNextTask picks the next eligible task: drop tasks already
// terminal in the reporting document, drop tasks whose depends_on
// isn't fully satisfied, then return the highest-priority remaining
// task (stable sort, so ties keep tasking-document order). Returns
// false if no task is eligible.
func SelectNextTask(pending []taskdoc.Task, report taskdoc.ReportingDocument) (taskdoc.Task, bool) {
	edges := make(map[string][]string, len(pending))
	for _, t := range pending {
		edges[t.ID] = t.DependsOn
	}
	deps := taskgraph.FromDependsOn(edges)

	completed := make(map[string]bool, len(report.Tasks))
	for id, r := range report.Tasks {
		completed[id] = r.Status == taskdoc.ReportCompleted
	}

	eligible := make([]taskdoc.Task, 0, len(pending))
	for _, t := range pending {
		if existing, ok := report.Tasks[t.ID]; ok {
			switch existing.Status {
			case taskdoc.ReportCompleted, taskdoc.ReportFailed, taskdoc.ReportBlocked:
				continue
			}
		}
		if !deps.Satisfied(t.ID, completed) {
			continue
		}
		eligible = append(eligible, t)
	}

	if len(eligible) == 0 {
		return taskdoc.Task{}, false
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Priority.Rank() < eligible[j].Priority.Rank()
	})
	return eligible[0], true
}
