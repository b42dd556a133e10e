package agentloop

import "strings"

// maxSummaryLen bounds the extracted summary's length.
const maxSummaryLen = 200

var completionWords = []string{"completed", "done", "finished", "success"}

// extractSummary picks the last output line containing a completion
// keyword, else the last non-empty line, truncated to 200 chars.
// structuredSummary, when a tool variant supplies one, takes priority
// over the heuristic entirely.
func extractSummary(output string, structuredSummary *string) string {
	if structuredSummary != nil && *structuredSummary != "" {
		return truncate(*structuredSummary, maxSummaryLen)
	}

	var lines []string
	for _, l := range strings.Split(output, "\n") {
		if trimmed := strings.TrimSpace(l); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return "Task completed"
	}

	for i := len(lines) - 1; i >= 0; i-- {
		lower := strings.ToLower(lines[i])
		for _, word := range completionWords {
			if strings.Contains(lower, word) {
				return truncate(lines[i], maxSummaryLen)
			}
		}
	}

	return truncate(lines[len(lines)-1], maxSummaryLen)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
