// Package sqlstore keeps local sessions and the collector's received data in
// a SQL database. Queries are written with ? placeholders and rebound for
// the connected driver, so the same code runs on postgres and sqlite.
package sqlstore

import (
	"context"
	"fmt"

	"decisionsim/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open connects to the database, pings it and runs the schema migrations.
// driver is "postgres" or "sqlite".
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// a single connection keeps writers from tripping over SQLITE_BUSY
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
