// Package journal keeps an append-only sqlite record of tunnel
// lifecycle outcomes. It subscribes to the manager's event bus in the
// composition root, so the core stays persistence-free.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/skiffvpn/tunnelctl/internal/tunnel"
)

//go:embed schema.sql
var ddl string

// Entry is one recorded lifecycle event.
type Entry struct {
	ID         string
	EventType  string
	ConfigName string
	Interface  string
	ErrorKind  string
	Detail     string
	OccurredAt time.Time
}

// Journal records lifecycle events to a sqlite database.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.setup(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// OpenInMemory opens an in-memory journal. Used by tests.
func OpenInMemory() (*Journal, error) {
	db, err := sql.Open("sqlite3", "file::memory:?mode=memory&cache=shared")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	j := &Journal{db: db}
	if err := j.setup(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) setup() error {
	if _, err := j.db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to set up journal schema: %w", err)
	}
	return nil
}

// Record appends one event. Event detail is stored as-is; the manager
// has already scrubbed key material before an event is published.
func (j *Journal) Record(ctx context.Context, ev tunnel.Event) error {
	const q = `INSERT INTO connection_events
		(id, event_type, config_name, interface, error_kind, detail, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := j.db.ExecContext(ctx, q,
		ev.ID, ev.Type, ev.ConfigName, ev.Interface, ev.ErrorKind, ev.Err, ev.At)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	const q = `SELECT id, event_type, config_name, interface, error_kind, detail, occurred_at
		FROM connection_events ORDER BY occurred_at DESC, id LIMIT ?`

	rows, err := j.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EventType, &e.ConfigName, &e.Interface,
			&e.ErrorKind, &e.Detail, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
