package migration

import (
	"context"

	"pcgstreams/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// type check
var _ Migrator = (*MigrationRunner)(nil)

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. Every step is
// idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createStreamPlansTable(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create stream_plans table"))
	}

	if err := r.createStreamPlanEntriesTable(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create stream_plan_entries table"))
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create indexes"))
	}

	return nil
}

// timestampType picks the column type that round-trips time.Time on the
// connected driver.
func timestampType(db *sqlx.DB) string {
	if db.DriverName() == "postgres" {
		return "TIMESTAMP WITH TIME ZONE"
	}
	return "TIMESTAMP"
}

func (r *MigrationRunner) createStreamPlansTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS stream_plans (
			id VARCHAR(36) PRIMARY KEY,
			label VARCHAR(100) NOT NULL,
			layout VARCHAR(20) NOT NULL,
			worker_count INTEGER NOT NULL,
			created_at `+timestampType(db)+` NOT NULL
		)
	`)
	return err
}

// Seeds are stored as decimal text: a uint64 does not fit BIGINT.
func (r *MigrationRunner) createStreamPlanEntriesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS stream_plan_entries (
			plan_id VARCHAR(36) NOT NULL REFERENCES stream_plans(id) ON DELETE CASCADE,
			worker INTEGER NOT NULL,
			seed VARCHAR(20) NOT NULL,
			stream BIGINT NOT NULL,
			PRIMARY KEY (plan_id, worker)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_stream_plans_created_at ON stream_plans(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_stream_plans_label ON stream_plans(label)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
