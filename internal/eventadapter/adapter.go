package eventadapter

import (
	"strconv"

	"github.com/google/uuid"
)

// Adapter builds taskdoc.Task records and parses comment commands.
// The zero value is usable; NewAdapter only exists to override the
// system login used to recognize the orchestrator's own pull requests.
type Adapter struct {
	systemLogin string
	// idSuffix generates the random suffix appended to a task id.
	// Defaults to a uuid4 hex prefix; overridable in tests for
	// deterministic ids.
	idSuffix func() string
}

// NewAdapter returns an Adapter that treats systemLogin as the bot
// account whose own pull requests are never queued for review. An
// empty systemLogin falls back to "cloud-code".
func NewAdapter(systemLogin string) *Adapter {
	return &Adapter{systemLogin: systemLogin}
}

func (a *Adapter) newTaskID(kind string, number int) string {
	suffix := a.idSuffix
	if suffix == nil {
		suffix = defaultIDSuffix
	}
	return kind + "-" + strconv.Itoa(number) + "-" + suffix()
}

func defaultIDSuffix() string {
	// A uuid4 string's first 8 characters are exactly its hex form's
	// first 8; no dash falls within that span.
	return uuid.NewString()[:8]
}
