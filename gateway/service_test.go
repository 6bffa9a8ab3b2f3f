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
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querygate/platform/audit"
	"querygate/platform/connectors/base"
)

// recordingSink captures audit entries for assertions.
type recordingSink struct {
	mu      sync.Mutex
	entries []*audit.Entry
}

func (s *recordingSink) Emit(entry *audit.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func (s *recordingSink) events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.EventType
	}
	return out
}

func (s *recordingSink) entry(i int) *audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[i]
}

// fakeDB implements base.Database with a programmable per-statement
// outcome, recording every statement it sees.
type fakeDB struct {
	mu            sync.Mutex
	exec          func(statement string) ([]string, [][]interface{}, error)
	snapshotErr   error
	snapshots     int
	closedSnaps   int
	executed      []string
	streamsOpened int
	streamsClosed int
}

func (db *fakeDB) Snapshot(ctx context.Context) (base.Snapshot, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.snapshotErr != nil {
		return nil, db.snapshotErr
	}
	db.snapshots++
	return &fakeSnapshot{db: db}, nil
}

func (db *fakeDB) Close() error { return nil }

func (db *fakeDB) statements() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]string(nil), db.executed...)
}

type fakeSnapshot struct {
	db *fakeDB
}

func (s *fakeSnapshot) Execute(ctx context.Context, statement string) (base.RowStream, error) {
	s.db.mu.Lock()
	s.db.executed = append(s.db.executed, statement)
	s.db.mu.Unlock()

	cols, rows, err := s.db.exec(statement)
	if err != nil {
		return nil, err
	}
	s.db.mu.Lock()
	s.db.streamsOpened++
	s.db.mu.Unlock()
	return &fakeStream{db: s.db, columns: cols, rows: rows}, nil
}

func (s *fakeSnapshot) Close() error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.closedSnaps++
	return nil
}

type fakeStream struct {
	db      *fakeDB
	columns []string
	rows    [][]interface{}
	idx     int
}

func (f *fakeStream) Columns() ([]string, error) { return f.columns, nil }

func (f *fakeStream) Next() bool {
	if f.idx >= len(f.rows) {
		return false
	}
	f.idx++
	return true
}

func (f *fakeStream) Values() ([]interface{}, error) { return f.rows[f.idx-1], nil }

func (f *fakeStream) Err() error { return nil }

func (f *fakeStream) Close() error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.streamsClosed++
	return nil
}

func testServiceConfig() *Config {
	return &Config{
		ProjectID:           "test-project",
		InstanceID:          "test-instance",
		DatabaseID:          "test-database",
		ReadOnly:            true,
		MaxRows:             1000,
		QueryTimeoutSeconds: 30,
	}
}

func newTestService(db *fakeDB, sink audit.Sink) *Service {
	return NewService(testServiceConfig(), db, sink)
}

func singleRowDB(column string, value interface{}) *fakeDB {
	return &fakeDB{
		exec: func(string) ([]string, [][]interface{}, error) {
			return []string{column}, [][]interface{}{{value}}, nil
		},
	}
}

func TestExecuteQuery_Success(t *testing.T) {
	db := &fakeDB{
		exec: func(string) ([]string, [][]interface{}, error) {
			return []string{"id", "name"}, [][]interface{}{
				{int64(1), "alice"},
				{int64(2), "bob"},
			}, nil
		},
	}
	sink := &recordingSink{}
	svc := newTestService(db, sink)

	result, err := svc.ExecuteQuery(context.Background(), "SELECT id, name FROM users", "u1", "s1")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.RowCount)
	require.Len(t, result.Data, 2)
	assert.Equal(t, int64(1), result.Data[0]["id"])
	assert.Equal(t, "alice", result.Data[0]["name"])
	assert.Equal(t, "SELECT id, name FROM users", result.SQL)
	assert.Equal(t, "u1", result.UserID)
	assert.Equal(t, "s1", result.SessionID)
	assert.False(t, result.Timestamp.IsZero())

	assert.Equal(t, []string{audit.EventQueryExecutionStart, audit.EventQueryExecutionSuccess}, sink.events())
	assert.Equal(t, "u1", sink.entry(0).UserID)
	assert.Equal(t, "test-instance", sink.entry(0).InstanceID)

	// Snapshot and stream are both released.
	assert.Equal(t, 1, db.snapshots)
	assert.Equal(t, 1, db.closedSnaps)
	assert.Equal(t, 1, db.streamsClosed)
}

func TestExecuteQuery_RejectedQueryNeverTouchesDatabase(t *testing.T) {
	db := &fakeDB{
		exec: func(string) ([]string, [][]interface{}, error) {
			t.Fatal("rejected query must not reach the database")
			return nil, nil, nil
		},
	}
	sink := &recordingSink{}
	svc := newTestService(db, sink)

	result, err := svc.ExecuteQuery(context.Background(), "DROP TABLE users;", "u1", "s1")
	require.Error(t, err)
	assert.Nil(t, result)

	var rejection *PolicyRejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, "mutation_keywords", rejection.Rule)
	assert.True(t, strings.HasPrefix(err.Error(), "Query rejected for security reasons: "))
	assert.Contains(t, err.Error(), "forbidden pattern")

	assert.Equal(t, 0, db.snapshots)
	assert.Equal(t, []string{audit.EventQueryRejected}, sink.events())
	assert.Equal(t, "DROP TABLE users;", sink.entry(0).SQL)
}

func TestExecuteQuery_ReadOnlyShapeRejection(t *testing.T) {
	sink := &recordingSink{}
	svc := newTestService(&fakeDB{}, sink)

	// Not matched by the denylist but not SELECT-shaped either.
	_, err := svc.ExecuteQuery(context.Background(), "EXPLAIN SELECT 1", "u1", "s1")
	require.Error(t, err)
	assert.Equal(t, "Query rejected for security reasons: Read-only mode: Only SELECT queries are allowed", err.Error())
}

func TestExecuteQuery_TruncatesAtMaxRows(t *testing.T) {
	rows := make([][]interface{}, 10)
	for i := range rows {
		rows[i] = []interface{}{int64(i)}
	}
	db := &fakeDB{
		exec: func(string) ([]string, [][]interface{}, error) {
			return []string{"n"}, rows, nil
		},
	}
	sink := &recordingSink{}
	cfg := testServiceConfig()
	cfg.MaxRows = 3
	svc := NewService(cfg, db, sink)

	result, err := svc.ExecuteQuery(context.Background(), "SELECT n FROM numbers", "u1", "s1")
	require.NoError(t, err)

	// Truncation is silent: success, with the cap's worth of rows.
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.RowCount)
	assert.Len(t, result.Data, 3)
	assert.Equal(t, []string{audit.EventQueryExecutionStart, audit.EventQueryExecutionSuccess}, sink.events())
}

func TestExecuteQuery_ExecutionErrorWrapsCause(t *testing.T) {
	cause := errors.New("relation \"users\" does not exist")
	db := &fakeDB{
		exec: func(string) ([]string, [][]interface{}, error) {
			return nil, nil, cause
		},
	}
	sink := &recordingSink{}
	svc := newTestService(db, sink)

	_, err := svc.ExecuteQuery(context.Background(), "SELECT id FROM users", "u1", "s1")
	require.Error(t, err)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "SELECT id FROM users", execErr.SQL)
	assert.ErrorIs(t, err, cause)
	assert.True(t, strings.HasPrefix(err.Error(), "Query execution failed: "))

	assert.Equal(t, []string{audit.EventQueryExecutionStart, audit.EventQueryExecutionError}, sink.events())
	assert.Contains(t, sink.entry(1).Details, "does not exist")

	// The snapshot is still released on the error path.
	assert.Equal(t, 1, db.closedSnaps)
}

func TestExecuteQuery_SnapshotError(t *testing.T) {
	db := &fakeDB{snapshotErr: errors.New("connection refused")}
	sink := &recordingSink{}
	svc := newTestService(db, sink)

	_, err := svc.ExecuteQuery(context.Background(), "SELECT 1", "u1", "s1")
	require.Error(t, err)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, []string{audit.EventQueryExecutionStart, audit.EventQueryExecutionError}, sink.events())
}

func TestExecuteQuery_EmptyResult(t *testing.T) {
	db := &fakeDB{
		exec: func(string) ([]string, [][]interface{}, error) {
			return []string{"id"}, nil, nil
		},
	}
	svc := newTestService(db, &recordingSink{})

	result, err := svc.ExecuteQuery(context.Background(), "SELECT id FROM users WHERE 1 = 0", "u1", "s1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.RowCount)
	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Data)
}
