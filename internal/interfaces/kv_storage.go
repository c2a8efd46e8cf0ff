package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned when a key is not found in the key/value store
var ErrKeyNotFound = errors.New("key not found")

// KeyValuePair represents a single key/value pair with metadata
type KeyValuePair struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// KeyValueStorage is the local key/value persistence store. Per-user history
// and settings documents live here, namespaced by the user identifier.
type KeyValueStorage interface {
	// Get retrieves a value by key, returns ErrKeyNotFound if missing
	Get(ctx context.Context, key string) (string, error)

	// GetPair retrieves a full KeyValuePair by key
	GetPair(ctx context.Context, key string) (*KeyValuePair, error)

	// Set inserts or updates a key/value pair with optional description
	Set(ctx context.Context, key string, value string, description string) error

	// Update atomically replaces the value of key with fn(current, found).
	// An error from fn aborts the update. fn may be retried on write conflicts.
	Update(ctx context.Context, key string, description string, fn func(current string, found bool) (string, error)) error

	// Delete removes a key/value pair, returns ErrKeyNotFound if missing
	Delete(ctx context.Context, key string) error

	// List returns all key/value pairs ordered by updated_at DESC
	List(ctx context.Context) ([]KeyValuePair, error)

	// ListByPrefix returns all key/value pairs with keys starting with the given prefix
	ListByPrefix(ctx context.Context, prefix string) ([]KeyValuePair, error)
}

// StorageStats describes the backing store for status reporting
type StorageStats struct {
	Backend   string `json:"backend"`
	Path      string `json:"path,omitempty"`
	InMemory  bool   `json:"in_memory"`
	LSMBytes  int64  `json:"lsm_bytes"`
	VLogBytes int64  `json:"vlog_bytes"`
}

// StorageManager owns the database behind KeyValueStorage
type StorageManager interface {
	KeyValueStorage() KeyValueStorage
	Stats() StorageStats
	Close() error
}
