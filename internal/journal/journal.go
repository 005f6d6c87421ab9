// Package journal keeps an append-only record of applied store mutations in
// a local SQLite database. It is purely diagnostic: failures are logged and
// never surface into the mutation path.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/benyxel/shopsync/internal/logfields"
)

// Entry is one recorded mutation.
type Entry struct {
	ID        int64
	Store     string
	Op        string
	Timestamp time.Time
	Payload   []byte
}

// Journal is a SQLite-backed mutation log.
type Journal struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or opens the journal database. Use ":memory:" for an
// in-memory journal in tests.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize journal schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS mutations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		store TEXT NOT NULL,
		op TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		payload BLOB
	);
	CREATE INDEX IF NOT EXISTS idx_mutations_store ON mutations(store);
	CREATE INDEX IF NOT EXISTS idx_mutations_timestamp ON mutations(timestamp);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record appends a mutation. It satisfies the stores' MutationSink and
// never reports failure to the caller.
func (j *Journal) Record(store, op string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("Journal payload marshal failed", logfields.Store(store), logfields.Error(err))
		data = nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.db.ExecContext(ctx,
		"INSERT INTO mutations (store, op, timestamp, payload) VALUES (?, ?, ?, ?)",
		store, op, time.Now().UnixNano(), data,
	)
	if err != nil {
		slog.Warn("Journal append failed", logfields.Store(store), logfields.Error(err))
	}
}

// Recent returns the latest mutations, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	rows, err := j.db.QueryContext(ctx,
		"SELECT id, store, op, timestamp, payload FROM mutations ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query mutations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ID, &e.Store, &e.Op, &ts, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan mutation: %w", err)
		}
		e.Timestamp = time.Unix(0, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
