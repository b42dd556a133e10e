package eventadapter

import "strings"

// agentKeywords maps each agent type to the label/content keywords
// that select it. A Go map has no stable order, so iteration below
// walks agentTypeOrder instead of ranging the map directly.
var agentKeywords = map[string][]string{
	"frontend": {"frontend", "ui", "react", "vue", "angular", "css", "html"},
	"backend":  {"backend", "api", "server", "database", "python", "node", "go"},
	"devops":   {"devops", "ci", "cd", "infrastructure", "docker", "kubernetes", "k8s"},
	"testing":  {"testing", "test", "qa", "e2e", "unit-test"},
	"database": {"database", "db", "sql", "migration", "schema"},
	"reviewer": {"review", "code-review"},
}

var agentTypeOrder = []string{"frontend", "backend", "devops", "testing", "database", "reviewer"}

// defaultAgentType is returned when neither labels nor content
// match any keyword table entry.
const defaultAgentType = "backend"

// InferAgentType picks the best agent type for an issue, checking
// labels first (exact match against a keyword) then falling back to a
// substring scan of "{title} {body}".
func InferAgentType(labels []string, title, body string) string {
	labelsLower := make([]string, len(labels))
	for i, l := range labels {
		labelsLower[i] = strings.ToLower(l)
	}

	for _, agentType := range agentTypeOrder {
		for _, kw := range agentKeywords[agentType] {
			if containsString(labelsLower, kw) {
				return agentType
			}
		}
	}

	content := strings.ToLower(title + " " + body)
	for _, agentType := range agentTypeOrder {
		for _, kw := range agentKeywords[agentType] {
			if strings.Contains(content, kw) {
				return agentType
			}
		}
	}

	return defaultAgentType
}

func containsString(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}
