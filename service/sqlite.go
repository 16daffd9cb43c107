package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AnTengye/projectbrief/model"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// OpenSQLite opens (or creates) a SQLite database at the given path.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// SQLiteRecordStore stores rows in a local SQLite file.
type SQLiteRecordStore struct {
	db *sql.DB
}

// NewSQLiteRecordStore wraps db and brings the schema up to date.
func NewSQLiteRecordStore(db *sql.DB) (*SQLiteRecordStore, error) {
	s := &SQLiteRecordStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// bump when the schema changes and append to migrations below
const sqliteSchemaVersion = 1

func (s *SQLiteRecordStore) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema version: %w", err)
		}
		version = 0
	} else if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	migrations := []func() error{
		s.migrateV1, // v0 → v1: submissions table
	}

	for i := version; i < len(migrations) && i < sqliteSchemaVersion; i++ {
		if err := migrations[i](); err != nil {
			return fmt.Errorf("migration v%d→v%d: %w", i, i+1, err)
		}
		if _, err := s.db.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			return fmt.Errorf("update schema version to %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *SQLiteRecordStore) migrateV1() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS submissions (
		id              TEXT PRIMARY KEY,
		project_name    TEXT NOT NULL,
		summary         TEXT NOT NULL,
		features        TEXT NOT NULL DEFAULT '',
		use_cases       TEXT NOT NULL DEFAULT '',
		platforms       TEXT NOT NULL DEFAULT '',
		audience        TEXT NOT NULL DEFAULT '',
		url             TEXT NOT NULL DEFAULT '',
		contact_email   TEXT NOT NULL DEFAULT '',
		tags            TEXT NOT NULL DEFAULT '',
		language        TEXT NOT NULL DEFAULT 'English',
		submission_date TEXT NOT NULL,
		pdf_url         TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_submissions_date ON submissions(submission_date DESC);
	`)
	return err
}

func (s *SQLiteRecordStore) Insert(ctx context.Context, row model.PersistedRow) (string, error) {
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, project_name, summary, features, use_cases, platforms,
			audience, url, contact_email, tags, language, submission_date, pdf_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.ProjectName, row.Summary, row.Features, row.UseCases, row.Platforms,
		row.Audience, row.URL, row.ContactEmail, row.Tags, row.Language, row.SubmissionDate, row.PDFURL,
	)
	if err != nil {
		return "", &model.StoreError{Op: "insert", Err: err}
	}
	return row.ID, nil
}

func (s *SQLiteRecordStore) SelectAll(ctx context.Context) ([]model.PersistedRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_name, summary, features, use_cases, platforms,
			audience, url, contact_email, tags, language, submission_date, pdf_url
		FROM submissions
		ORDER BY rowid`)
	if err != nil {
		return nil, &model.StoreError{Op: "select", Err: err}
	}
	defer rows.Close()

	var result []model.PersistedRow
	for rows.Next() {
		var r model.PersistedRow
		if err := rows.Scan(
			&r.ID, &r.ProjectName, &r.Summary, &r.Features, &r.UseCases, &r.Platforms,
			&r.Audience, &r.URL, &r.ContactEmail, &r.Tags, &r.Language, &r.SubmissionDate, &r.PDFURL,
		); err != nil {
			return nil, &model.StoreError{Op: "select", Err: err}
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.StoreError{Op: "select", Err: err}
	}
	return result, nil
}

// Ping reports whether the database answers.
func (s *SQLiteRecordStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
