package store

import "context"

// Keys of the four persisted collections.
const (
	KeyUser       = "user"
	KeyAccounts   = "accounts"
	KeyCategories = "categories"
	KeyEmails     = "emails"
)

// CollectionKeys lists every persisted collection key in load order.
var CollectionKeys = []string{KeyUser, KeyAccounts, KeyCategories, KeyEmails}

// Store is a durable key-value store holding JSON-encoded values.
// It mirrors the semantics of browser local storage: values are opaque
// bytes and a missing key is not an error.
type Store interface {
	// Get returns the value stored under key. The boolean is false when
	// the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes the given keys in one transaction. Absent keys are
	// skipped.
	Remove(ctx context.Context, keys ...string) error

	// Close releases the underlying storage.
	Close() error
}
