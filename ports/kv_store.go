package ports

import "context"

// KVStore is a durable string key-value store
type KVStore interface {
	// Get returns the value and whether the key exists
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Remove deletes key; removing a missing key is not an error
	Remove(ctx context.Context, key string) error
}
