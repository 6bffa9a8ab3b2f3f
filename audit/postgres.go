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
	"database/sql"
	"log"
	"sync"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	defaultQueueSize = 10000
	defaultBatchSize = 100
	flushInterval    = 5 * time.Second
)

// PostgresSink persists audit entries to an audit_log table. Entries are
// queued and written in batches by a background worker so Emit never
// blocks the request path.
type PostgresSink struct {
	db           *sql.DB
	batch        *batchWriter
	queue        chan *Entry
	wg           sync.WaitGroup
	shutdownChan chan struct{}
	closeOnce    sync.Once
}

// NewPostgresSink connects to the audit database, creates the audit_log
// table when missing, and starts the background writer.
func NewPostgresSink(databaseURL string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	if err := createAuditTable(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return newPostgresSink(db), nil
}

// newPostgresSink wires a sink around an existing handle. Split out so
// tests can inject a mock database.
func newPostgresSink(db *sql.DB) *PostgresSink {
	s := &PostgresSink{
		db:           db,
		batch:        newBatchWriter(db, defaultBatchSize),
		queue:        make(chan *Entry, defaultQueueSize),
		shutdownChan: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.processQueue()

	return s
}

// Emit queues the entry for batched insertion. When the queue is full the
// entry is written directly so nothing is silently dropped.
func (s *PostgresSink) Emit(entry *Entry) {
	if entry == nil {
		return
	}
	select {
	case s.queue <- entry:
	default:
		log.Printf("Audit queue full, writing directly")
		if err := s.batch.write([]*Entry{entry}); err != nil {
			log.Printf("Failed to write audit entry: %v", err)
		}
	}
}

// Close flushes pending entries, stops the worker, and closes the handle.
func (s *PostgresSink) Close() error {
	s.closeOnce.Do(func() {
		close(s.shutdownChan)
	})
	s.wg.Wait()
	return s.db.Close()
}

func (s *PostgresSink) processQueue() {
	defer s.wg.Done()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case entry := <-s.queue:
			s.batch.add(entry)
		case <-ticker.C:
			s.batch.flush()
		case <-s.shutdownChan:
			// Drain whatever is still queued, then flush.
			for {
				select {
				case entry := <-s.queue:
					s.batch.add(entry)
				default:
					s.batch.flush()
					return
				}
			}
		}
	}
}

// batchWriter accumulates entries and inserts them in one transaction.
type batchWriter struct {
	db        *sql.DB
	batchSize int

	mu      sync.Mutex
	entries []*Entry
}

func newBatchWriter(db *sql.DB, batchSize int) *batchWriter {
	return &batchWriter{
		db:        db,
		batchSize: batchSize,
		entries:   make([]*Entry, 0, batchSize),
	}
}

func (b *batchWriter) add(entry *Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, entry)
	if len(b.entries) >= b.batchSize {
		b.flushLocked()
	}
}

func (b *batchWriter) flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushLocked()
}

func (b *batchWriter) flushLocked() {
	if len(b.entries) == 0 {
		return
	}
	if err := b.write(b.entries); err != nil {
		log.Printf("Failed to write audit batch: %v", err)
	}
	b.entries = b.entries[:0]
}

func (b *batchWriter) write(entries []*Entry) error {
	tx, err := b.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO audit_log (
			id, timestamp, event_type, user_id, session_id,
			sql_text, details, project_id, instance_id, database_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, entry := range entries {
		if _, err := stmt.Exec(
			entry.ID,
			entry.Timestamp,
			entry.EventType,
			entry.UserID,
			entry.SessionID,
			entry.SQL,
			entry.Details,
			entry.ProjectID,
			entry.InstanceID,
			entry.DatabaseID,
		); err != nil {
			log.Printf("Failed to insert audit entry: %v", err)
		}
	}

	return tx.Commit()
}

// createAuditTable creates the audit_log table if it does not exist.
func createAuditTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_log (
		id VARCHAR(255) PRIMARY KEY,
		timestamp TIMESTAMP NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		user_id VARCHAR(255) NOT NULL,
		session_id VARCHAR(255) NOT NULL,
		sql_text TEXT NOT NULL,
		details TEXT,
		project_id VARCHAR(255),
		instance_id VARCHAR(255),
		database_id VARCHAR(255),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_log_user_id ON audit_log(user_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_event_type ON audit_log(event_type);
	`

	_, err := db.Exec(query)
	return err
}
