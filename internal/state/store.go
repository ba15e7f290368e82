// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package state persists export bookkeeping in a SQLite ledger: one row per
// export run and one row per exported note. The ledger drives incremental
// exports (last export date, unchanged-note detection) and file name
// ownership.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DBFile is the ledger's file name inside the output directory.
const DBFile = ".granola-export.db"

// ErrNoLedger is returned by OpenExisting when dir holds no ledger.
var ErrNoLedger = fmt.Errorf("no export ledger: %w", os.ErrNotExist)

// Run records the outcome of one export run.
type Run struct {
	ID          int64     `json:"id" yaml:"id"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time `json:"finished_at" yaml:"finished_at"`
	Fetched     int       `json:"fetched" yaml:"fetched"`
	Saved       int       `json:"saved" yaml:"saved"`
	Skipped     int       `json:"skipped" yaml:"skipped"`
	Unchanged   int       `json:"unchanged" yaml:"unchanged"`
	Failed      int       `json:"failed" yaml:"failed"`
	Transcripts int       `json:"transcripts" yaml:"transcripts"`
}

// DocumentRecord records the last export of one note.
type DocumentRecord struct {
	ID            string    `json:"id" yaml:"id"`
	Title         string    `json:"title" yaml:"title"`
	Path          string    `json:"path" yaml:"path"`
	CreatedAt     string    `json:"created_at" yaml:"created_at"`
	UpdatedAt     string    `json:"updated_at" yaml:"updated_at"`
	HasTranscript bool      `json:"has_transcript" yaml:"has_transcript"`
	ExportedAt    time.Time `json:"exported_at" yaml:"exported_at"`
}

// Store manages the ledger database.
type Store struct {
	db  *sql.DB
	dir string
}

// Open opens or creates the ledger at dir/.granola-export.db, creating dir
// and the schema as needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	dbPath := filepath.Join(dir, DBFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// OpenExisting opens the ledger in dir without creating anything. It returns
// ErrNoLedger when the ledger file does not exist.
func OpenExisting(dir string) (*Store, error) {
	if _, err := os.Stat(filepath.Join(dir, DBFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoLedger
		}
		return nil, fmt.Errorf("checking ledger: %w", err)
	}
	return Open(dir)
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			fetched INTEGER NOT NULL DEFAULT 0,
			saved INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			unchanged INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			transcripts INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			title TEXT,
			path TEXT NOT NULL,
			created_at TEXT,
			updated_at TEXT,
			has_transcript INTEGER NOT NULL DEFAULT 0,
			exported_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_path ON documents(path)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// LastExportDate returns the start time of the most recent run that saved at
// least one note. ok is false when there is none.
func (s *Store) LastExportDate(ctx context.Context) (t time.Time, ok bool, err error) {
	var started string
	err = s.db.QueryRowContext(ctx,
		`SELECT started_at FROM runs WHERE saved > 0 ORDER BY id DESC LIMIT 1`,
	).Scan(&started)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("querying last export: %w", err)
	}
	t, err = time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing last export date %q: %w", started, err)
	}
	return t, true, nil
}

// RecordRun appends a run and returns its ID.
func (s *Store) RecordRun(ctx context.Context, r Run) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, finished_at, fetched, saved, skipped, unchanged, failed, transcripts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(r.StartedAt), formatTime(r.FinishedAt),
		r.Fetched, r.Saved, r.Skipped, r.Unchanged, r.Failed, r.Transcripts,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	return res.LastInsertId()
}

// Runs returns up to limit runs, newest first. A limit of 0 returns all.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, finished_at, fetched, saved, skipped, unchanged, failed, transcripts
		FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished sql.NullString
		if err := rows.Scan(&r.ID, &started, &finished, &r.Fetched, &r.Saved,
			&r.Skipped, &r.Unchanged, &r.Failed, &r.Transcripts); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = parseTime(started.String)
		r.FinishedAt = parseTime(finished.String)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Document returns the ledger entry for id. ok is false when none exists.
func (s *Store) Document(ctx context.Context, id string) (rec DocumentRecord, ok bool, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, path, created_at, updated_at, has_transcript, exported_at
		 FROM documents WHERE id = ?`, id)
	rec, err = scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return DocumentRecord{}, false, nil
	}
	if err != nil {
		return DocumentRecord{}, false, fmt.Errorf("querying document %s: %w", id, err)
	}
	return rec, true, nil
}

// Documents returns every ledger entry ordered by path.
func (s *Store) Documents(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, path, created_at, updated_at, has_transcript, exported_at
		 FROM documents ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var recs []DocumentRecord
	for rows.Next() {
		rec, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// RecordDocument inserts or replaces the ledger entry for rec.ID.
func (s *Store) RecordDocument(ctx context.Context, rec DocumentRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, title, path, created_at, updated_at, has_transcript, exported_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, path=excluded.path, created_at=excluded.created_at,
			updated_at=excluded.updated_at, has_transcript=excluded.has_transcript,
			exported_at=excluded.exported_at`,
		rec.ID, rec.Title, rec.Path, rec.CreatedAt, rec.UpdatedAt,
		rec.HasTranscript, formatTime(rec.ExportedAt),
	)
	if err != nil {
		return fmt.Errorf("recording document %s: %w", rec.ID, err)
	}
	return nil
}

// PathOwner returns the ID of the note last exported to path.
func (s *Store) PathOwner(ctx context.Context, path string) (id string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM documents WHERE path = ? LIMIT 1`, path,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying path owner: %w", err)
	}
	return id, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(sc scanner) (DocumentRecord, error) {
	var rec DocumentRecord
	var title, created, updated, exported sql.NullString
	if err := sc.Scan(&rec.ID, &title, &rec.Path, &created, &updated, &rec.HasTranscript, &exported); err != nil {
		return DocumentRecord{}, err
	}
	rec.Title = title.String
	rec.CreatedAt = created.String
	rec.UpdatedAt = updated.String
	rec.ExportedAt = parseTime(exported.String)
	return rec, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
