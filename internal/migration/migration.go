package migration

import (
	"context"
	"fmt"

	"decisionsim/internal/errors"

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

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// dialect holds the column types that differ between postgres and sqlite
type dialect struct {
	serial    string
	timestamp string
	now       string
}

func dialectFor(driverName string) (dialect, error) {
	switch driverName {
	case "postgres", "pgx":
		return dialect{
			serial:    "BIGSERIAL PRIMARY KEY",
			timestamp: "TIMESTAMP WITH TIME ZONE",
			now:       "NOW()",
		}, nil
	case "sqlite", "sqlite3":
		return dialect{
			serial:    "INTEGER PRIMARY KEY AUTOINCREMENT",
			timestamp: "TIMESTAMP",
			now:       "CURRENT_TIMESTAMP",
		}, nil
	}
	return dialect{}, errors.ConfigInvalid(fmt.Sprintf("unsupported database driver %q", driverName))
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	d, err := dialectFor(db.DriverName())
	if err != nil {
		return err
	}

	if err := r.createKVTable(ctx, db, d); err != nil {
		return errors.Wrap(err, "failed to create kv_entries table")
	}

	if err := r.createCollectorTables(ctx, db, d); err != nil {
		return errors.Wrap(err, "failed to create collector tables")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createKVTable(ctx context.Context, db *sqlx.DB, d dialect) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS kv_entries (
			namespace VARCHAR(100) NOT NULL,
			key VARCHAR(100) NOT NULL,
			value TEXT NOT NULL,
			updated_at %[1]s DEFAULT %[2]s,
			PRIMARY KEY (namespace, key)
		)
	`, d.timestamp, d.now))
	return err
}

func (r *MigrationRunner) createCollectorTables(ctx context.Context, db *sqlx.DB, d dialect) error {
	statements := []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS collector_events (
			id %[1]s,
			unit_id BIGINT NOT NULL,
			name VARCHAR(255) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at %[2]s DEFAULT %[3]s
		)`, d.serial, d.timestamp, d.now),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS collector_groups (
			id %[1]s,
			event_id BIGINT NOT NULL REFERENCES collector_events(id) ON DELETE CASCADE,
			unit_id BIGINT NOT NULL,
			name VARCHAR(255) NOT NULL,
			created_at %[2]s DEFAULT %[3]s,
			UNIQUE (event_id, unit_id, name)
		)`, d.serial, d.timestamp, d.now),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS collector_answers (
			id %[1]s,
			event_id BIGINT NOT NULL,
			unit_id BIGINT NOT NULL,
			group_id BIGINT NOT NULL REFERENCES collector_groups(id) ON DELETE CASCADE,
			group_name VARCHAR(255) NOT NULL,
			question_id BIGINT NOT NULL,
			delta TEXT NOT NULL,
			created_at %[2]s DEFAULT %[3]s,
			UNIQUE (event_id, group_id, question_id)
		)`, d.serial, d.timestamp, d.now),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS collector_answer_items (
			id %[1]s,
			answer_id BIGINT NOT NULL REFERENCES collector_answers(id) ON DELETE CASCADE,
			item_key VARCHAR(255) NOT NULL,
			item_label TEXT NOT NULL,
			value_text TEXT,
			value_num DOUBLE PRECISION,
			is_correct INTEGER NOT NULL DEFAULT 0,
			delta TEXT NOT NULL
		)`, d.serial),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS collector_sessions (
			id %[1]s,
			session_id VARCHAR(64) NOT NULL,
			set_name VARCHAR(100) NOT NULL,
			event_id BIGINT NOT NULL DEFAULT 0,
			unit_id BIGINT NOT NULL DEFAULT 0,
			group_id BIGINT NOT NULL DEFAULT 0,
			summary TEXT NOT NULL,
			created_at %[2]s DEFAULT %[3]s
		)`, d.serial, d.timestamp, d.now),
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_collector_events_unit ON collector_events(unit_id, active)`,
		`CREATE INDEX IF NOT EXISTS idx_collector_groups_event ON collector_groups(event_id, unit_id)`,
		`CREATE INDEX IF NOT EXISTS idx_collector_answers_group ON collector_answers(event_id, group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_collector_items_answer ON collector_answer_items(answer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_collector_sessions_session ON collector_sessions(session_id)`,
	}

	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}
