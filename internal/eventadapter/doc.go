// Package eventadapter translates inbound source-control events
// (issue opened, issue comment created, pull-request activity) and the
// /cloud-code comment-command grammar into taskdoc.Task records and
// typed Commands. Webhook intake and signature verification are
// external collaborators — this package starts from an already-decoded
// event payload.
package eventadapter

import (
	"strconv"
	"strings"

	"github.com/cloudcode/orchestrator/internal/taskdoc"
)

// Issue is the subset of a source-control issue this adapter reads.
type Issue struct {
	Number int
	Title  string
	Body   string
	Labels []string
	Author string
}

// Comment is a single issue/PR comment.
type Comment struct {
	Body   string
	Author string
}

// PullRequest is the subset of a source-control pull request this
// adapter reads.
type PullRequest struct {
	Number     int
	Title      string
	Body       string
	BaseBranch string
	HeadBranch string
	Author     string
}

// requiredLabels are the labels that opt an issue into task creation.
var requiredLabels = []string{"cloud-code", "auto-code"}

func hasRequiredLabel(labels []string) bool {
	for _, l := range labels {
		ll := strings.ToLower(l)
		for _, req := range requiredLabels {
			if ll == req {
				return true
			}
		}
	}
	return false
}

// BuildTaskFromIssue implements "issue opened" handling: it requires
// the cloud-code/auto-code label, infers agent type and priority, and
// parses the issue body into a Task. ok is false if the issue lacks a
// required label.
func (a *Adapter) BuildTaskFromIssue(issue Issue) (task taskdoc.Task, agentType string, ok bool) {
	if !hasRequiredLabel(issue.Labels) {
		return taskdoc.Task{}, "", false
	}
	return a.buildTaskFromIssue(issue), InferAgentType(issue.Labels, issue.Title, issue.Body), true
}

func (a *Adapter) buildTaskFromIssue(issue Issue) taskdoc.Task {
	section := ExtractTaskContext(issue.Body)

	description := section.Description
	if description == "" {
		description = issue.Body
	}
	if section.ContextNotes != "" {
		description += "\n\n## Additional Context\n" + section.ContextNotes
	}

	return taskdoc.Task{
		ID:                 a.newTaskID("issue", issue.Number),
		Title:              issue.Title,
		Description:        description,
		Branch:             branchForIssue(issue.Number),
		Priority:           PriorityFromLabels(issue.Labels),
		Status:             taskdoc.TaskAssigned,
		AcceptanceCriteria: section.AcceptanceCriteria,
		Context: taskdoc.TaskContext{
			RelatedFiles: section.RelatedFiles,
			Dependencies: nil,
		},
		WorkspaceMode: taskdoc.WorkspaceShared,
	}
}

// BuildReviewTask implements "pull request opened/synchronize/reopened"
// handling: it builds a fixed-shape code-review task targeting the
// PR's head branch, unless the PR's author is the system itself (a
// cloud-code-authored PR is never reviewed by cloud-code).
func (a *Adapter) BuildReviewTask(pr PullRequest) (task taskdoc.Task, ok bool) {
	if isSystemAuthor(pr.Author, a.systemLogin) {
		return taskdoc.Task{}, false
	}

	body := pr.Body
	if body == "" {
		body = "No description provided."
	}

	return taskdoc.Task{
		ID:          a.newTaskID("pr-review", pr.Number),
		Title:       "Review: " + pr.Title,
		Description: reviewDescription(pr.Number, body),
		Branch:      pr.HeadBranch,
		Priority:    taskdoc.PriorityMedium,
		Status:      taskdoc.TaskAssigned,
		AcceptanceCriteria: []string{
			"Review all changed files",
			"Check for potential bugs or issues",
			"Verify test coverage",
			"Provide constructive feedback",
		},
		Context:       taskdoc.TaskContext{},
		WorkspaceMode: taskdoc.WorkspaceShared,
	}, true
}

func reviewDescription(prNumber int, body string) string {
	return "## Code Review Request\n\n" +
		"Review the changes in PR #" + strconv.Itoa(prNumber) + ".\n\n" +
		"### PR Description\n" + body + "\n\n" +
		"### Review Checklist\n" +
		"- Code quality and readability\n" +
		"- Test coverage\n" +
		"- Security considerations\n" +
		"- Performance implications\n" +
		"- Documentation updates needed\n"
}

func isSystemAuthor(author, systemLogin string) bool {
	if systemLogin == "" {
		systemLogin = "cloud-code"
	}
	return strings.Contains(strings.ToLower(author), strings.ToLower(systemLogin))
}

func branchForIssue(issueNumber int) string {
	return "cloud-code/issue-" + strconv.Itoa(issueNumber)
}
