// Copyright 2025 QueryGate
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package audit

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"querygate/platform/shared/logger"
)

// Lifecycle event types recorded by the gateway.
const (
	EventQueryRejected         = "query_rejected"
	EventQueryExecutionStart   = "query_execution_start"
	EventQueryExecutionSuccess = "query_execution_success"
	EventQueryExecutionError   = "query_execution_error"
	EventSchemaQueryError      = "schema_query_error"
)

// DatabaseIdentity is the project/instance/database triple stamped on
// every audit entry.
type DatabaseIdentity struct {
	ProjectID  string `json:"project_id"`
	InstanceID string `json:"instance_id"`
	DatabaseID string `json:"database_id"`
}

// Entry is one audit record. Entries are never mutated after creation.
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	EventType  string    `json:"event_type"`
	UserID     string    `json:"user_id"`
	SessionID  string    `json:"session_id"`
	SQL        string    `json:"sql"`
	Details    string    `json:"details"`
	ProjectID  string    `json:"project_id"`
	InstanceID string    `json:"instance_id"`
	DatabaseID string    `json:"database_id"`
}

// NewEntry builds an audit entry with a fresh ID and UTC timestamp. The
// free-text detail is sanitized against log injection before it is stored.
func NewEntry(eventType, sqlText, userID, sessionID, details string, id DatabaseIdentity) *Entry {
	return &Entry{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		EventType:  eventType,
		UserID:     userID,
		SessionID:  sessionID,
		SQL:        sqlText,
		Details:    sanitizeDetail(details),
		ProjectID:  id.ProjectID,
		InstanceID: id.InstanceID,
		DatabaseID: id.DatabaseID,
	}
}

// Sink accepts audit entries. Implementations must be fire-and-forget:
// Emit never blocks the caller and never returns an error.
type Sink interface {
	Emit(entry *Entry)
}

// NopSink discards all entries. Used when audit logging is disabled.
type NopSink struct{}

// Emit does nothing.
func (NopSink) Emit(*Entry) {}

// LogSink writes each entry as one structured JSON log line.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink creates a sink backed by the shared structured logger.
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

// Emit writes the entry to the log stream.
func (s *LogSink) Emit(entry *Entry) {
	if entry == nil {
		return
	}
	s.log.Info(entry.UserID, entry.SessionID, "AUDIT", map[string]interface{}{
		"audit_id":    entry.ID,
		"event_type":  entry.EventType,
		"sql":         entry.SQL,
		"details":     entry.Details,
		"project_id":  entry.ProjectID,
		"instance_id": entry.InstanceID,
		"database_id": entry.DatabaseID,
		"emitted_at":  entry.Timestamp.Format(time.RFC3339Nano),
	})
}

var ansiEscapeRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// maxDetailLength bounds the free-text detail, in characters, to keep
// entries small.
const maxDetailLength = 500

// sanitizeDetail escapes newlines and strips ANSI sequences so a crafted
// error message cannot forge additional log records. Truncation happens
// on a rune boundary so the detail stays valid UTF-8.
func sanitizeDetail(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = ansiEscapeRegex.ReplaceAllString(s, "")
	if runes := []rune(s); len(runes) > maxDetailLength {
		s = string(runes[:maxDetailLength]) + "...[truncated]"
	}
	return s
}
