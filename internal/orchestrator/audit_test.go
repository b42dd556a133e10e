package orchestrator

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLog_RecordAppendsOneLinePerEvent(t *testing.T) {
	dir := t.TempDir()
	log, err := NewAuditLog(dir)
	require.NoError(t, err)

	log.Record(AuditEvent{TaskID: "t1", Status: "completed", AgentType: "backend", FilesModified: 2, Commits: 1})
	log.Record(AuditEvent{TaskID: "t2", Status: "failed", AgentType: "backend", Error: "boom"})
	require.NoError(t, log.Close())

	written, errs, _ := log.Stats()
	assert.EqualValues(t, 2, written)
	assert.EqualValues(t, 0, errs)

	f, err := os.Open(filepath.Join(dir, auditEventsFile))
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines int
	for scanner.Scan() {
		lines++
	}
	assert.Equal(t, 2, lines)
}
