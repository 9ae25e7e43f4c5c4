// Package storage archives resolution reports in a SQLite database so that
// earlier runs over a facts file can be listed and compared.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Outcome is the archived result of one call site.
type Outcome struct {
	Site    string
	OK      bool
	Code    string
	Message string
	// Tree is the rendered call (on success) or the explanation (on failure).
	Tree string
}

// Run is one resolution of a facts file.
type Run struct {
	ID        string
	File      string
	CreatedAt time.Time
	Outcomes  []Outcome
}

// Failures counts the outcomes that did not resolve.
func (r *Run) Failures() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.OK {
			n++
		}
	}
	return n
}

// RunSummary is a row of the run history.
type RunSummary struct {
	ID        string
	File      string
	CreatedAt time.Time
	Sites     int
	Failures  int
}

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the archive at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			file TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			sites INTEGER NOT NULL,
			failures INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			site TEXT NOT NULL,
			ok INTEGER NOT NULL,
			code TEXT,
			message TEXT,
			tree TEXT,
			PRIMARY KEY (run_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_file ON runs(file);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun stores run and its outcomes in one transaction. A missing ID or
// timestamp is filled in before saving.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, file, created_at, sites, failures) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.File, run.CreatedAt.UnixNano(), len(run.Outcomes), run.Failures())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO outcomes (run_id, position, site, ok, code, message, tree) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, o := range run.Outcomes {
		if _, err := stmt.ExecContext(ctx, run.ID, i, o.Site, o.OK, o.Code, o.Message, o.Tree); err != nil {
			return fmt.Errorf("failed to insert outcome %s: %w", o.Site, err)
		}
	}
	return tx.Commit()
}

// ListRuns returns the archived runs, newest first. An empty file matches
// every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, file string) ([]RunSummary, error) {
	query := `SELECT id, file, created_at, sites, failures FROM runs`
	var args []any
	if file != "" {
		query += ` WHERE file = ?`
		args = append(args, file)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var created int64
		if err := rows.Scan(&r.ID, &r.File, &created, &r.Sites, &r.Failures); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(0, created)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun loads a run with its outcomes in site order. It returns nil if no
// run has the given id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	run := &Run{ID: id}
	var created int64
	err := s.db.QueryRowContext(ctx, `SELECT file, created_at FROM runs WHERE id = ?`, id).Scan(&run.File, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.CreatedAt = time.Unix(0, created)

	rows, err := s.db.QueryContext(ctx,
		`SELECT site, ok, code, message, tree FROM outcomes WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var o Outcome
		var code, message, tree sql.NullString
		if err := rows.Scan(&o.Site, &o.OK, &code, &message, &tree); err != nil {
			return nil, err
		}
		o.Code, o.Message, o.Tree = code.String, message.String, tree.String
		run.Outcomes = append(run.Outcomes, o)
	}
	return run, rows.Err()
}
