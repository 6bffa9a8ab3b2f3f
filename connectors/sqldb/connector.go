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

// Package sqldb implements the database collaborator over database/sql.
// A snapshot is a read-only transaction at REPEATABLE READ, which on
// PostgreSQL pins a consistent view for every statement executed in it.
package sqldb

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"querygate/platform/connectors/base"
)

// Connector implements base.Database over a SQL connection pool.
type Connector struct {
	config *base.ConnectorConfig
	db     *sql.DB
	logger *log.Logger
}

// New creates an unconnected connector.
func New() *Connector {
	return &Connector{
		logger: log.New(os.Stdout, "[SQLDB] ", log.LstdFlags),
	}
}

// Connect opens the connection pool and verifies it with a ping.
func (c *Connector) Connect(ctx context.Context, config *base.ConnectorConfig) error {
	c.config = config

	db, err := sql.Open("postgres", config.ConnectionURL)
	if err != nil {
		return base.NewConnectorError(config.Name, "Connect", "failed to open connection", err)
	}

	maxOpenConns := config.MaxOpenConns
	if maxOpenConns == 0 {
		maxOpenConns = 25
	}
	maxIdleConns := config.MaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return base.NewConnectorError(config.Name, "Connect", "failed to ping database", err)
	}

	c.db = db
	c.logger.Printf("Connected to database: %s (max_conns=%d)", config.Name, maxOpenConns)

	return nil
}

// Snapshot opens a read-only transaction pinning a consistent view.
func (c *Connector) Snapshot(ctx context.Context) (base.Snapshot, error) {
	if c.db == nil {
		return nil, base.NewConnectorError(c.name(), "Snapshot", "database not connected", nil)
	}

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if err != nil {
		return nil, base.NewConnectorError(c.name(), "Snapshot", "failed to begin read transaction", err)
	}

	return &snapshot{tx: tx, connector: c.name()}, nil
}

// Close closes the connection pool.
func (c *Connector) Close() error {
	if c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return base.NewConnectorError(c.name(), "Close", "failed to close connection", err)
	}
	c.logger.Printf("Disconnected from database: %s", c.name())
	return nil
}

func (c *Connector) name() string {
	if c.config == nil {
		return "sqldb"
	}
	return c.config.Name
}

// newWithDB wires a connector around an existing handle, for tests.
func newWithDB(db *sql.DB, config *base.ConnectorConfig) *Connector {
	return &Connector{
		config: config,
		db:     db,
		logger: log.New(os.Stdout, "[SQLDB] ", log.LstdFlags),
	}
}

// snapshot is one read-only transaction.
type snapshot struct {
	tx        *sql.Tx
	connector string
}

// Execute runs a statement inside the snapshot and returns a streaming
// cursor over its results.
func (s *snapshot) Execute(ctx context.Context, statement string) (base.RowStream, error) {
	rows, err := s.tx.QueryContext(ctx, statement)
	if err != nil {
		return nil, base.NewConnectorError(s.connector, "Execute", "query execution failed", err)
	}
	return &rowStream{rows: rows, connector: s.connector}, nil
}

// Close rolls back the read-only transaction, releasing the snapshot.
func (s *snapshot) Close() error {
	if err := s.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return base.NewConnectorError(s.connector, "Close", "failed to release snapshot", err)
	}
	return nil
}

// rowStream adapts *sql.Rows to base.RowStream.
type rowStream struct {
	rows      *sql.Rows
	connector string
}

func (r *rowStream) Columns() ([]string, error) {
	cols, err := r.rows.Columns()
	if err != nil {
		return nil, base.NewConnectorError(r.connector, "Columns", "failed to get columns", err)
	}
	return cols, nil
}

func (r *rowStream) Next() bool {
	return r.rows.Next()
}

// Values scans the current row into a value slice, coercing []byte to
// string for text columns.
func (r *rowStream) Values() ([]interface{}, error) {
	cols, err := r.rows.Columns()
	if err != nil {
		return nil, base.NewConnectorError(r.connector, "Values", "failed to get columns", err)
	}

	values := make([]interface{}, len(cols))
	valuePtrs := make([]interface{}, len(cols))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	if err := r.rows.Scan(valuePtrs...); err != nil {
		return nil, base.NewConnectorError(r.connector, "Values", "failed to scan row", err)
	}

	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}

	return values, nil
}

func (r *rowStream) Err() error {
	return r.rows.Err()
}

func (r *rowStream) Close() error {
	return r.rows.Close()
}
