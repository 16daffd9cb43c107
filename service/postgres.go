package service

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AnTengye/projectbrief/model"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresRecordStore stores rows in the submissions table.
type PostgresRecordStore struct {
	pool *pgxpool.Pool
}

func NewPostgresRecordStore(pool *pgxpool.Pool) *PostgresRecordStore {
	return &PostgresRecordStore{pool: pool}
}

// ConnectPostgres opens a pool and pings it.
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	slog.Info("connected to postgres",
		"host", poolCfg.ConnConfig.Host,
		"database", poolCfg.ConnConfig.Database,
	)
	return pool, nil
}

// MigratePostgres applies the embedded migrations.
func MigratePostgres(dsn string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(dsn))
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	slog.Info("migrations applied", "version", version, "dirty", dirty)
	return nil
}

// migrateURL rewrites a libpq URL to the scheme of the pgx5 migrate driver.
func migrateURL(dsn string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

func (s *PostgresRecordStore) Insert(ctx context.Context, row model.PersistedRow) (string, error) {
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	submitted, err := time.Parse(time.RFC3339, row.SubmissionDate)
	if err != nil {
		return "", &model.StoreError{Op: "insert", Err: fmt.Errorf("invalid submission_date: %w", err)}
	}

	query := `
		INSERT INTO submissions (id, project_name, summary, features, use_cases, platforms,
			audience, url, contact_email, tags, language, submission_date, pdf_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = s.pool.Exec(ctx, query,
		row.ID, row.ProjectName, row.Summary, row.Features, row.UseCases, row.Platforms,
		row.Audience, row.URL, row.ContactEmail, row.Tags, row.Language, submitted, row.PDFURL,
	)
	if err != nil {
		return "", &model.StoreError{Op: "insert", Err: err}
	}
	return row.ID, nil
}

func (s *PostgresRecordStore) SelectAll(ctx context.Context) ([]model.PersistedRow, error) {
	query := `
		SELECT id::text, project_name, summary, features, use_cases, platforms,
			audience, url, contact_email, tags, language, submission_date, pdf_url
		FROM submissions
		ORDER BY seq`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, &model.StoreError{Op: "select", Err: err}
	}
	defer rows.Close()

	var result []model.PersistedRow
	for rows.Next() {
		var r model.PersistedRow
		var submitted time.Time
		if err := rows.Scan(
			&r.ID, &r.ProjectName, &r.Summary, &r.Features, &r.UseCases, &r.Platforms,
			&r.Audience, &r.URL, &r.ContactEmail, &r.Tags, &r.Language, &submitted, &r.PDFURL,
		); err != nil {
			return nil, &model.StoreError{Op: "select", Err: err}
		}
		r.SubmissionDate = submitted.UTC().Format(time.RFC3339)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.StoreError{Op: "select", Err: err}
	}
	return result, nil
}

// Ping reports whether the database answers.
func (s *PostgresRecordStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
