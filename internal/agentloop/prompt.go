package agentloop

import (
	"fmt"
	"strings"

	"github.com/cloudcode/orchestrator/internal/taskdoc"
)

// BuildPrompt composes the natural-language prompt handed to a
// codingtool.Tool: title + description + optional acceptance-criteria
// block + optional related-files block + standard instructions.
func BuildPrompt(t taskdoc.Task) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Task: %s\n\n", t.Title)
	b.WriteString("## Description\n")
	b.WriteString(t.Description)
	b.WriteString("\n\n")

	if len(t.AcceptanceCriteria) > 0 {
		b.WriteString("## Acceptance Criteria\n\n")
		for i, c := range t.AcceptanceCriteria {
			fmt.Fprintf(&b, "%d. %s\n", i+1, c)
		}
		b.WriteString("\n")
	}

	if len(t.Context.RelatedFiles) > 0 {
		b.WriteString("## Related Files\n")
		b.WriteString("You may find these files helpful:\n\n")
		for _, f := range t.Context.RelatedFiles {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Instructions\n")
	b.WriteString("1. Read and understand the existing code\n")
	b.WriteString("2. Implement the changes described above\n")
	b.WriteString("3. Ensure all acceptance criteria are met\n")
	b.WriteString("4. Write or update tests if applicable\n")
	b.WriteString("5. Do NOT commit changes - just modify the files\n\n")
	fmt.Fprintf(&b, "Branch: %s\n", t.Branch)

	return b.String()
}
