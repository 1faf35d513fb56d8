// Audit logging for task mutations. Every change to a stored grouping task
// is appended as one JSON line, so the full history of a task can be
// reconstructed from the audit file alone.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditEventType defines the type of audit event.
type AuditEventType string

const (
	AuditTaskCreated   AuditEventType = "task_created"
	AuditTaskProcessed AuditEventType = "task_processed"
	AuditNameMoved     AuditEventType = "name_moved"
	AuditMoveRejected  AuditEventType = "move_rejected"
	AuditTaskDeleted   AuditEventType = "task_deleted"
)

// AuditEvent represents one structured audit log entry.
type AuditEvent struct {
	Timestamp  int64                  `json:"ts"` // Unix milliseconds
	EventType  AuditEventType         `json:"event"`
	TaskID     string                 `json:"task,omitempty"`
	RequestID  string                 `json:"req,omitempty"`
	Success    bool                   `json:"success"`
	DurationMs int64                  `json:"dur_ms,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Message    string                 `json:"msg"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

var (
	auditFile   *os.File
	auditMu     sync.Mutex
	auditLogger *AuditLogger
)

// AuditLogger appends audit events to the audit file.
type AuditLogger struct {
	requestID string
}

// InitAudit opens the audit log file. A no-op when logging is disabled.
func InitAudit() error {
	if !IsEnabled() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		return nil // Already initialized
	}

	date := time.Now().Format("2006-01-02")
	auditPath := filepath.Join(logsDir(), fmt.Sprintf("%s_audit.log", date))

	file, err := os.OpenFile(auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	auditFile = file

	header := fmt.Sprintf("# Audit log started at %s\n", time.Now().Format(time.RFC3339))
	auditFile.WriteString(header)
	return nil
}

// CloseAudit closes the audit log file.
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// Audit returns the global audit logger.
func Audit() *AuditLogger {
	if auditLogger == nil {
		auditLogger = &AuditLogger{}
	}
	return auditLogger
}

// AuditWithRequest creates an audit logger scoped to an HTTP request, so
// every event it writes carries the request correlation ID.
func AuditWithRequest(requestID string) *AuditLogger {
	return &AuditLogger{requestID: requestID}
}

// Log writes an audit event.
func (a *AuditLogger) Log(event AuditEvent) {
	if !IsEnabled() || auditFile == nil {
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if event.RequestID == "" && a.requestID != "" {
		event.RequestID = a.requestID
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	data, err := json.Marshal(event)
	if err == nil {
		auditFile.WriteString(string(data) + "\n")
	}
}

// TaskCreated logs the creation of a grouping task.
func (a *AuditLogger) TaskCreated(taskID string, nameCount int, delimiter, strategy string) {
	a.Log(AuditEvent{
		EventType: AuditTaskCreated,
		TaskID:    taskID,
		Success:   true,
		Fields: map[string]interface{}{
			"names":     nameCount,
			"delimiter": delimiter,
			"strategy":  strategy,
		},
		Message: fmt.Sprintf("Task created: %s (%d names)", taskID, nameCount),
	})
}

// TaskProcessed logs the grouping computation for a task.
func (a *AuditLogger) TaskProcessed(taskID string, groupCount int, durationMs int64) {
	a.Log(AuditEvent{
		EventType:  AuditTaskProcessed,
		TaskID:     taskID,
		Success:    true,
		DurationMs: durationMs,
		Fields:     map[string]interface{}{"groups": groupCount},
		Message:    fmt.Sprintf("Task processed: %s -> %d groups (%dms)", taskID, groupCount, durationMs),
	})
}

// NameMoved logs a successful move of a name between groups.
func (a *AuditLogger) NameMoved(taskID, name, fromGroup, toGroup string) {
	a.Log(AuditEvent{
		EventType: AuditNameMoved,
		TaskID:    taskID,
		Success:   true,
		Fields: map[string]interface{}{
			"name": name,
			"from": fromGroup,
			"to":   toGroup,
		},
		Message: fmt.Sprintf("Name moved: %q %s -> %s (task %s)", name, fromGroup, toGroup, taskID),
	})
}

// MoveRejected logs a move that failed validation.
func (a *AuditLogger) MoveRejected(taskID, name, group, reason string) {
	a.Log(AuditEvent{
		EventType: AuditMoveRejected,
		TaskID:    taskID,
		Success:   false,
		Error:     reason,
		Fields: map[string]interface{}{
			"name":  name,
			"group": group,
		},
		Message: fmt.Sprintf("Move rejected: %q in %s (task %s): %s", name, group, taskID, reason),
	})
}

// TaskDeleted logs the deletion of a grouping task.
func (a *AuditLogger) TaskDeleted(taskID string) {
	a.Log(AuditEvent{
		EventType: AuditTaskDeleted,
		TaskID:    taskID,
		Success:   true,
		Message:   fmt.Sprintf("Task deleted: %s", taskID),
	})
}

// Package-level emitters for callers without request scope. The store
// uses these; the API layer goes through AuditWithRequest instead.

// TaskProcessed logs a grouping computation on the global audit logger.
func TaskProcessed(taskID string, groupCount int, durationMs int64) {
	Audit().TaskProcessed(taskID, groupCount, durationMs)
}

// TaskDeleted logs a task deletion on the global audit logger.
func TaskDeleted(taskID string) {
	Audit().TaskDeleted(taskID)
}
