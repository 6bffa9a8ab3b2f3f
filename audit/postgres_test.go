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
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchWriter_FlushWritesQueuedEntries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO audit_log")
	prep.ExpectExec().
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), EventQueryExecutionStart,
			"user-1", "sess-1", "SELECT 1", "", "proj-1", "inst-1", "db-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	bw := newBatchWriter(db, 100)
	bw.add(NewEntry(EventQueryExecutionStart, "SELECT 1", "user-1", "sess-1", "", testIdentity()))
	bw.flush()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchWriter_FlushOnBatchSize(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO audit_log")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// batchSize 2: the second add triggers the write without an explicit flush.
	bw := newBatchWriter(db, 2)
	bw.add(NewEntry(EventQueryExecutionStart, "SELECT 1", "u", "s", "", testIdentity()))
	bw.add(NewEntry(EventQueryExecutionSuccess, "SELECT 1", "u", "s", "ok", testIdentity()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchWriter_FlushEmptyIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	bw := newBatchWriter(db, 10)
	bw.flush()

	// No Begin/Commit expected.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_EmitAndClose(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO audit_log")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectClose()

	sink := newPostgresSink(db)
	sink.Emit(NewEntry(EventQueryRejected, "DROP TABLE t", "u", "s", "blocked", testIdentity()))

	// Close drains the queue and flushes the batch before closing.
	require.NoError(t, sink.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_EmitNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	sink := newPostgresSink(db)
	assert.NotPanics(t, func() { sink.Emit(nil) })
	require.NoError(t, sink.Close())
}
