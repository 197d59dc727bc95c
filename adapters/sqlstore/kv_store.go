package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"decisionsim/ports"

	"github.com/jmoiron/sqlx"
)

// DefaultNamespace is used when a single participant owns the database
const DefaultNamespace = "default"

// kvStore implements ports.KVStore on the kv_entries table
type kvStore struct {
	db        *sqlx.DB
	namespace string
}

// NewKVStore creates a KV store scoped to namespace
func NewKVStore(db *sqlx.DB, namespace string) ports.KVStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &kvStore{db: db, namespace: namespace}
}

// Get reads a value
func (s *kvStore) Get(ctx context.Context, key string) (string, bool, error) {
	query := s.db.Rebind(`SELECT value FROM kv_entries WHERE namespace = ? AND key = ?`)

	var value string
	err := s.db.GetContext(ctx, &value, query, s.namespace, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts a value
func (s *kvStore) Set(ctx context.Context, key, value string) error {
	query := s.db.Rebind(`INSERT INTO kv_entries (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)

	if _, err := s.db.ExecContext(ctx, query, s.namespace, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Remove deletes a value
func (s *kvStore) Remove(ctx context.Context, key string) error {
	query := s.db.Rebind(`DELETE FROM kv_entries WHERE namespace = ? AND key = ?`)

	if _, err := s.db.ExecContext(ctx, query, s.namespace, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}
