package postgres

import (
	"context"

	"pcgstreams/internal"
	"pcgstreams/internal/config"
	"pcgstreams/internal/errors"
	"pcgstreams/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open connects to the plan ledger and brings its schema up to date
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.URL)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to connect to %s database", cfg.Driver))
	}

	maxOpen := cfg.MaxOpenConns
	if cfg.Driver == config.DriverSQLite {
		// modernc sqlite serializes writers; one connection also keeps
		// ":memory:" databases from splitting across connections.
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}

	internal.DefaultLogger.Info("[Database] Connected to %s plan ledger", cfg.Driver)
	return db, nil
}
