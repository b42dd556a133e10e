package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// auditEventsFile is the JSONL log of terminal task events, one line
// per completed/failed/blocked task, kept for after-the-fact audit and
// restart recovery — the orchestrator itself never reads it back.
const auditEventsFile = "orchestrator-events.jsonl"

const auditSchemaVersion = 1

// AuditEvent is one terminal-status record written by AuditLog.
type AuditEvent struct {
	Version        int       `json:"version"`
	Timestamp      time.Time `json:"timestamp"`
	TaskID         string    `json:"task_id"`
	Status         string    `json:"status"`
	AgentType      string    `json:"agent_type"`
	FilesModified  int       `json:"files_modified,omitempty"`
	Commits        int       `json:"commits,omitempty"`
	Error          string    `json:"error,omitempty"`
	BlockedReason  string    `json:"blocked_reason,omitempty"`
	HandoffTarget  string    `json:"handoff_target,omitempty"`
}

// AuditLog appends terminal task events to a JSONL file, synchronously
// per event: no buffering, and a write failure is recorded but never
// stops dispatch.
type AuditLog struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
	written int64
	errors  int64
	lastErr error
}

// NewAuditLog opens (or creates) the JSONL log under dir, creating
// dir itself if absent.
func NewAuditLog(dir string) (*AuditLog, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating audit log dir: %w", err)
	}
	path := filepath.Join(dir, auditEventsFile)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // internal audit path
	if err != nil {
		return nil, fmt.Errorf("opening orchestrator events file: %w", err)
	}
	return &AuditLog{file: file, encoder: json.NewEncoder(file)}, nil
}

// Record appends one event. Errors are tracked on the log itself
// rather than propagated — a terminal-hook failure to log never blocks
// the orchestrator from continuing to the next task.
func (l *AuditLog) Record(event AuditEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	event.Version = auditSchemaVersion
	event.Timestamp = time.Now().UTC()

	if err := l.encoder.Encode(event); err != nil {
		l.errors++
		l.lastErr = err
		return
	}
	l.written++
}

// Stats returns the number of events written and errored so far.
func (l *AuditLog) Stats() (written, errors int64, lastErr error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written, l.errors, l.lastErr
}

// Close flushes and closes the underlying file.
func (l *AuditLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
