package eventadapter

import (
	"strings"

	"github.com/cloudcode/orchestrator/internal/taskdoc"
)

// priorityLabelOrder is checked in this fixed order so
// "critical"/"urgent" always wins over a lower-priority label also
// present on the same issue.
var priorityLabelOrder = []struct {
	label    string
	priority taskdoc.Priority
}{
	{"critical", taskdoc.PriorityCritical},
	{"urgent", taskdoc.PriorityCritical},
	{"high", taskdoc.PriorityHigh},
	{"high-priority", taskdoc.PriorityHigh},
	{"medium", taskdoc.PriorityMedium},
	{"low", taskdoc.PriorityLow},
	{"low-priority", taskdoc.PriorityLow},
}

// PriorityFromLabels returns the first matching label's priority, or
// PriorityMedium if no priority label is present.
func PriorityFromLabels(labels []string) taskdoc.Priority {
	labelsLower := make(map[string]bool, len(labels))
	for _, l := range labels {
		labelsLower[strings.ToLower(l)] = true
	}
	for _, entry := range priorityLabelOrder {
		if labelsLower[entry.label] {
			return entry.priority
		}
	}
	return taskdoc.PriorityMedium
}
