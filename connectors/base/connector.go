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

package base

import (
	"context"
	"time"
)

// Database is the collaborator contract the gateway executes against.
type Database interface {
	// Snapshot opens a point-in-time, read-consistent view of the database.
	// The caller owns the snapshot and must close it on every exit path.
	Snapshot(ctx context.Context) (Snapshot, error)

	// Close releases the underlying connection resources.
	Close() error
}

// Snapshot is a scoped, read-consistent view used to execute one or more
// statements. It must never outlive the call that opened it.
type Snapshot interface {
	// Execute runs a statement and returns a streaming cursor over the
	// results. The caller must close the returned stream.
	Execute(ctx context.Context, statement string) (RowStream, error)

	// Close releases the snapshot.
	Close() error
}

// RowStream is an ordered cursor over query results, with the column
// names reported by the query's result schema (not the SQL text).
type RowStream interface {
	// Columns returns the result schema's column names, in order.
	Columns() ([]string, error)

	// Next advances to the next row, returning false when exhausted.
	Next() bool

	// Values returns the current row's values in column order.
	Values() ([]interface{}, error)

	// Err returns the first error encountered during iteration.
	Err() error

	// Close releases the cursor.
	Close() error
}

// ConnectorConfig holds the configuration for a connector instance.
type ConnectorConfig struct {
	Name          string        `json:"name"`           // Unique name for this connector
	ConnectionURL string        `json:"connection_url"` // Connection string (DSN)
	Timeout       time.Duration `json:"timeout"`        // Operation timeout
	MaxOpenConns  int           `json:"max_open_conns"`
	MaxIdleConns  int           `json:"max_idle_conns"`
}

// ConnectorError represents errors raised by a connector operation, with
// the underlying cause preserved for diagnostic chaining.
type ConnectorError struct {
	ConnectorName string
	Operation     string
	Message       string
	Cause         error
}

func (e *ConnectorError) Error() string {
	if e.Cause != nil {
		return e.ConnectorName + "." + e.Operation + ": " + e.Message + " (cause: " + e.Cause.Error() + ")"
	}
	return e.ConnectorName + "." + e.Operation + ": " + e.Message
}

func (e *ConnectorError) Unwrap() error {
	return e.Cause
}

// NewConnectorError creates a new ConnectorError.
func NewConnectorError(connectorName, operation, message string, cause error) *ConnectorError {
	return &ConnectorError{
		ConnectorName: connectorName,
		Operation:     operation,
		Message:       message,
		Cause:         cause,
	}
}
