package migration

import (
	"context"
	"fmt"

	"hsedash/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the findings store schema
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order. Every step is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createFindingsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create hse_findings table")
	}

	if err := r.createLocationsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create hse_locations table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

// Findings are stored as exported text. Parsing belongs to the normalizer so
// the database and file sources yield identical views.
func (r *MigrationRunner) createFindingsTable(ctx context.Context, db *sqlx.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS hse_findings (
			row_no BIGINT PRIMARY KEY,
			finding_id TEXT,
			report_datetime TEXT,
			category TEXT,
			status TEXT,
			location_name TEXT,
			object_name TEXT,
			object_parent TEXT,
			condition_text TEXT,
			recommendation_text TEXT,
			reporter_id TEXT,
			organizational_unit TEXT,
			role TEXT,
			title TEXT,
			opened_at TEXT,
			closed_at TEXT,
			latitude TEXT,
			longitude TEXT,
			loaded_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`

	_, err := db.ExecContext(ctx, query)
	return err
}

func (r *MigrationRunner) createLocationsTable(ctx context.Context, db *sqlx.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS hse_locations (
			location_name TEXT PRIMARY KEY,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL
		)`

	_, err := db.ExecContext(ctx, query)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_hse_findings_finding_id ON hse_findings(finding_id)",
		"CREATE INDEX IF NOT EXISTS idx_hse_findings_location ON hse_findings(location_name)",
	}

	for _, indexSQL := range indexes {
		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
