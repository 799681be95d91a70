package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/cognicore/linlog/pkg/linlog/internalerr"
	"github.com/cognicore/linlog/pkg/linlog/store"
	"github.com/cognicore/linlog/pkg/linlog/trace"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite trace store. ":memory:" keeps everything in a
// single private connection.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if isMemory(path) {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	// Initialize schema
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	ord INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	run TEXT NOT NULL,
	seq INTEGER NOT NULL,
	depth INTEGER NOT NULL,
	kind TEXT NOT NULL,
	detail TEXT,
	at TEXT,
	FOREIGN KEY(run) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS events_run_seq ON events(run, seq);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// AppendEvents inserts events for a run in one transaction
func (s *sqliteStore) AppendEvents(ctx context.Context, run string, events []trace.Event) error {
	if run == "" {
		return fmt.Errorf("append events: empty run: %w", internalerr.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO runs (id) VALUES (?)`, run); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO events (id, run, seq, depth, kind, detail, at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx,
			e.ID.String(),
			run,
			e.Seq,
			e.Depth,
			string(e.Kind),
			e.Detail,
			e.At.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Events returns a run's events ordered by sequence number
func (s *sqliteStore) Events(ctx context.Context, run string) ([]trace.Event, error) {
	if err := s.requireRun(ctx, run); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, seq, depth, kind, detail, at
FROM events
WHERE run = ?
ORDER BY seq, id`, run)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []trace.Event
	for rows.Next() {
		var (
			id, kind, detail, at string
			e                    trace.Event
		)
		if err := rows.Scan(&id, &e.Seq, &e.Depth, &kind, &detail, &at); err != nil {
			return nil, err
		}
		if e.ID, err = ulid.Parse(id); err != nil {
			return nil, fmt.Errorf("event id %q: %w", id, err)
		}
		if e.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("event time %q: %w", at, err)
		}
		e.Run = run
		e.Kind = trace.Kind(kind)
		e.Detail = detail
		out = append(out, e)
	}
	return out, rows.Err()
}

// Runs returns run IDs in insertion order
func (s *sqliteStore) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY ord`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// KindCounts tallies a run's events by kind
func (s *sqliteStore) KindCounts(ctx context.Context, run string) (map[trace.Kind]int, error) {
	if err := s.requireRun(ctx, run); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(1) FROM events WHERE run = ? GROUP BY kind`, run)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[trace.Kind]int)
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[trace.Kind(kind)] = n
	}
	return counts, rows.Err()
}

func (s *sqliteStore) requireRun(ctx context.Context, run string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM runs WHERE id = ?`, run).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("run %s: %w", run, internalerr.ErrNotFound)
	}
	return nil
}
