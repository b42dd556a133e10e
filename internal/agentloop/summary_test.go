package agentloop

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cloudcode/orchestrator/internal/taskdoc"
)

func TestExtractSummary_PrefersLastCompletionKeywordLine(t *testing.T) {
	out := "Reading files...\nCreated /workspace/health.go. Done.\nexiting\n"
	assert.Equal(t, "Created /workspace/health.go. Done.", extractSummary(out, nil))
}

func TestExtractSummary_FallsBackToLastNonEmptyLine(t *testing.T) {
	out := "step one\nstep two\n\n\n"
	assert.Equal(t, "step two", extractSummary(out, nil))
}

func TestExtractSummary_EmptyOutput(t *testing.T) {
	assert.Equal(t, "Task completed", extractSummary("", nil))
}

func TestExtractSummary_TruncatesLongLines(t *testing.T) {
	out := "finished: " + strings.Repeat("x", 500)
	got := extractSummary(out, nil)
	assert.Len(t, got, maxSummaryLen)
}

func TestExtractSummary_StructuredSummaryWins(t *testing.T) {
	structured := "Implemented the health check endpoint."
	got := extractSummary("noise\nmore noise done\n", &structured)
	assert.Equal(t, structured, got)
}

func TestBuildPrompt_ComposesAllSections(t *testing.T) {
	task := taskdoc.Task{
		ID:          "t1",
		Title:       "Add health check",
		Description: "Expose /healthz on the API server.",
		Branch:      "cloud-code/issue-1",
		AcceptanceCriteria: []string{
			"Returns 200 when healthy",
			"Returns 503 when a dependency is down",
		},
		Context: taskdoc.TaskContext{RelatedFiles: []string{"internal/api/router.go"}},
	}

	prompt := BuildPrompt(task)
	assert.Contains(t, prompt, "# Task: Add health check")
	assert.Contains(t, prompt, "Expose /healthz on the API server.")
	assert.Contains(t, prompt, "1. Returns 200 when healthy")
	assert.Contains(t, prompt, "2. Returns 503 when a dependency is down")
	assert.Contains(t, prompt, "- internal/api/router.go")
	assert.Contains(t, prompt, "Do NOT commit changes")
	assert.Contains(t, prompt, "Branch: cloud-code/issue-1")
}

func TestBuildPrompt_OmitsEmptySections(t *testing.T) {
	prompt := BuildPrompt(taskdoc.Task{Title: "Small fix", Description: "Fix it.", Branch: "b"})
	assert.NotContains(t, prompt, "## Acceptance Criteria")
	assert.NotContains(t, prompt, "## Related Files")
}
