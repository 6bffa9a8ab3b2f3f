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

package gateway

import (
	"context"
	"fmt"
	"time"

	"querygate/platform/audit"
	"querygate/platform/connectors/base"
	"querygate/platform/policy"
	"querygate/platform/shared/logger"
)

// QueryResult is the outcome of one governed execution. Data holds at
// most MaxRows rows, each keyed by the result schema's column names.
type QueryResult struct {
	Success       bool                     `json:"success"`
	Data          []map[string]interface{} `json:"data"`
	RowCount      int                      `json:"row_count"`
	ExecutionTime float64                  `json:"execution_time"`
	SQL           string                   `json:"sql"`
	Timestamp     time.Time                `json:"timestamp"`
	UserID        string                   `json:"user_id"`
	SessionID     string                   `json:"session_id"`
}

// Service is the execution wrapper: it owns the policy validator, the
// audit sink, and the database collaborator, and runs every query
// through the same validate-audit-execute pipeline.
type Service struct {
	cfg       *Config
	db        base.Database
	sink      audit.Sink
	validator *policy.Validator
	identity  audit.DatabaseIdentity
	log       *logger.Logger
}

// NewService wires a service from its collaborators.
func NewService(cfg *Config, db base.Database, sink audit.Sink) *Service {
	return &Service{
		cfg:       cfg,
		db:        db,
		sink:      sink,
		validator: policy.NewValidator(),
		identity: audit.DatabaseIdentity{
			ProjectID:  cfg.ProjectID,
			InstanceID: cfg.InstanceID,
			DatabaseID: cfg.DatabaseID,
		},
		log: logger.New("gateway"),
	}
}

// createContext builds the per-request security context from the
// caller's identity and the process-wide limits.
func (s *Service) createContext(userID, sessionID string) policy.SecurityContext {
	return policy.NewSecurityContext(userID, sessionID, policy.ContextDefaults{
		ReadOnly:            s.cfg.ReadOnly,
		MaxRows:             s.cfg.MaxRows,
		QueryTimeoutSeconds: s.cfg.QueryTimeoutSeconds,
	})
}

func (s *Service) audit(eventType, sqlText, userID, sessionID, details string) {
	s.sink.Emit(audit.NewEntry(eventType, sqlText, userID, sessionID, details, s.identity))
}

// ExecuteQuery runs one statement through the full pipeline. A policy
// rejection returns *PolicyRejectionError without touching the database;
// any later failure returns *ExecutionError with the cause chained.
func (s *Service) ExecuteQuery(ctx context.Context, sqlText, userID, sessionID string) (*QueryResult, error) {
	sc := s.createContext(userID, sessionID)

	if rej := s.validator.Validate(sqlText, sc); rej != nil {
		s.audit(audit.EventQueryRejected, sqlText, userID, sessionID, rej.Reason)
		promPolicyRejections.Inc()
		promQueriesTotal.WithLabelValues("rejected").Inc()
		s.log.Warn(userID, sessionID, "Query rejected by policy", map[string]interface{}{
			"rule":   rej.Rule,
			"reason": rej.Reason,
		})
		return nil, &PolicyRejectionError{SQL: sqlText, Rule: rej.Rule, Reason: rej.Reason}
	}

	s.audit(audit.EventQueryExecutionStart, sqlText, userID, sessionID, "")

	snap, err := s.db.Snapshot(ctx)
	if err != nil {
		return nil, s.executionFailed(sqlText, userID, sessionID, err)
	}
	defer func() { _ = snap.Close() }()

	queryStart := time.Now()
	stream, err := snap.Execute(ctx, sqlText)
	if err != nil {
		return nil, s.executionFailed(sqlText, userID, sessionID, err)
	}
	defer func() { _ = stream.Close() }()

	columns, err := stream.Columns()
	if err != nil {
		return nil, s.executionFailed(sqlText, userID, sessionID, err)
	}

	// Materialize rows, silently truncating at the context's row cap.
	data := make([]map[string]interface{}, 0)
	for stream.Next() {
		if len(data) >= sc.MaxRows {
			break
		}
		values, err := stream.Values()
		if err != nil {
			return nil, s.executionFailed(sqlText, userID, sessionID, err)
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		data = append(data, row)
	}
	if err := stream.Err(); err != nil {
		return nil, s.executionFailed(sqlText, userID, sessionID, err)
	}
	executionTime := time.Since(queryStart).Seconds()

	result := &QueryResult{
		Success:       true,
		Data:          data,
		RowCount:      len(data),
		ExecutionTime: executionTime,
		SQL:           sqlText,
		Timestamp:     time.Now().UTC(),
		UserID:        userID,
		SessionID:     sessionID,
	}

	s.audit(audit.EventQueryExecutionSuccess, sqlText, userID, sessionID,
		fmt.Sprintf("Returned %d rows in %.3fs", result.RowCount, executionTime))
	promQueriesTotal.WithLabelValues("success").Inc()
	promQueryDuration.Observe(executionTime)
	s.log.InfoWithDuration(userID, sessionID, "Query executed", executionTime*1000, map[string]interface{}{
		"row_count": result.RowCount,
	})

	return result, nil
}

func (s *Service) executionFailed(sqlText, userID, sessionID string, cause error) error {
	s.audit(audit.EventQueryExecutionError, sqlText, userID, sessionID, cause.Error())
	promQueriesTotal.WithLabelValues("error").Inc()
	s.log.ErrorWithCause(userID, sessionID, "Query execution failed", cause, nil)
	return &ExecutionError{SQL: sqlText, Cause: cause}
}
