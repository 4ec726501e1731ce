package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/captionsort/pkg/captionsort/store"
)

const (
	reasonBanned = "banned"
	reasonPruned = "pruned"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	root TEXT,
	entries INTEGER NOT NULL DEFAULT 0,
	written INTEGER NOT NULL DEFAULT 0,
	threshold INTEGER NOT NULL DEFAULT 0,
	keep_first_n INTEGER NOT NULL DEFAULT 0,
	outcome TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_tag_counts (
	run_id TEXT NOT NULL,
	tag TEXT NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY(run_id, tag),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_removed (
	run_id TEXT NOT NULL,
	reason TEXT NOT NULL,
	tag TEXT NOT NULL,
	PRIMARY KEY(run_id, reason, tag),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_unsorted (
	run_id TEXT NOT NULL,
	tag TEXT NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY(run_id, tag),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun inserts or replaces a run report
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return errors.New("run id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// foreign_keys is per connection, so clear child rows explicitly
	for _, table := range []string{"run_tag_counts", "run_unsorted", "run_removed", "runs"} {
		col := "run_id"
		if table == "runs" {
			col = "id"
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+col+` = ?`, r.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	const stmt = `
INSERT INTO runs (id, started_at, root, entries, written, threshold, keep_first_n, outcome)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`
	if _, err := tx.ExecContext(ctx, stmt,
		r.ID,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.Root,
		r.Entries,
		r.Written,
		r.Threshold,
		r.KeepFirstN,
		string(r.Outcome),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if err := insertCounts(ctx, tx, "run_tag_counts", r.ID, r.Counts); err != nil {
		return err
	}
	if err := insertCounts(ctx, tx, "run_unsorted", r.ID, r.Unsorted); err != nil {
		return err
	}
	if err := insertRemoved(ctx, tx, r.ID, reasonBanned, r.Banned); err != nil {
		return err
	}
	if err := insertRemoved(ctx, tx, r.ID, reasonPruned, r.Pruned); err != nil {
		return err
	}

	return tx.Commit()
}

func insertCounts(ctx context.Context, tx *sql.Tx, table, runID string, rows []store.TagCount) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+table+` (run_id, tag, count) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, tc := range rows {
		if _, err := stmt.ExecContext(ctx, runID, tc.Tag, tc.Count); err != nil {
			return fmt.Errorf("insert %s %q: %w", table, tc.Tag, err)
		}
	}
	return nil
}

func insertRemoved(ctx context.Context, tx *sql.Tx, runID, reason string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO run_removed (run_id, reason, tag) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, tag := range tags {
		if _, err := stmt.ExecContext(ctx, runID, reason, tag); err != nil {
			return fmt.Errorf("insert removed %q: %w", tag, err)
		}
	}
	return nil
}

// GetRun returns a full run report by ID
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	var (
		r         store.Run
		startedAt string
		outcome   string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, started_at, root, entries, written, threshold, keep_first_n, outcome
FROM runs WHERE id = ?`, id).Scan(
		&r.ID, &startedAt, &r.Root, &r.Entries, &r.Written, &r.Threshold, &r.KeepFirstN, &outcome,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, false, nil
	}
	if err != nil {
		return store.Run{}, false, err
	}
	r.Outcome = store.Outcome(outcome)
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return store.Run{}, false, fmt.Errorf("parse started_at: %w", err)
	}

	if r.Counts, err = s.loadCounts(ctx, "run_tag_counts", id); err != nil {
		return store.Run{}, false, err
	}
	if r.Unsorted, err = s.loadCounts(ctx, "run_unsorted", id); err != nil {
		return store.Run{}, false, err
	}
	if r.Banned, err = s.loadRemoved(ctx, id, reasonBanned); err != nil {
		return store.Run{}, false, err
	}
	if r.Pruned, err = s.loadRemoved(ctx, id, reasonPruned); err != nil {
		return store.Run{}, false, err
	}
	return r, true, nil
}

func (s *sqliteStore) loadCounts(ctx context.Context, table, runID string) ([]store.TagCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tag, count FROM `+table+` WHERE run_id = ? ORDER BY count DESC, tag ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.TagCount
	for rows.Next() {
		var tc store.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (s *sqliteStore) loadRemoved(ctx context.Context, runID, reason string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tag FROM run_removed WHERE run_id = ? AND reason = ? ORDER BY tag`, runID, reason)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

// ListRuns returns the most recent runs first
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT r.id, r.started_at, r.root, r.entries, r.written, r.outcome,
	(SELECT COUNT(*) FROM run_tag_counts c WHERE c.run_id = r.id)
FROM runs r
ORDER BY r.started_at DESC, r.id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.RunSummary
	for rows.Next() {
		var (
			sum       store.RunSummary
			startedAt string
			outcome   string
		)
		if err := rows.Scan(&sum.ID, &startedAt, &sum.Root, &sum.Entries, &sum.Written, &outcome, &sum.DistinctTags); err != nil {
			return nil, err
		}
		sum.Outcome = store.Outcome(outcome)
		if sum.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
