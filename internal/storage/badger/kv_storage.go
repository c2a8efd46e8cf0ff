package badger

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/greattrades/internal/interfaces"
)

// KVStorage implements the KeyValueStorage interface for Badger.
// Keys are stored as given (only trimmed): they embed opaque user ids,
// which are case-sensitive.
type KVStorage struct {
	hold   *badgerhold.Store
	logger arbor.ILogger
}

func normalizeKey(key string) string {
	return strings.TrimSpace(key)
}

// Get retrieves a value by key
func (s *KVStorage) Get(ctx context.Context, key string) (string, error) {
	pair, err := s.GetPair(ctx, key)
	if err != nil {
		return "", err
	}
	return pair.Value, nil
}

// GetPair retrieves a full KeyValuePair by key
func (s *KVStorage) GetPair(ctx context.Context, key string) (*interfaces.KeyValuePair, error) {
	var pair interfaces.KeyValuePair
	err := s.hold.Get(normalizeKey(key), &pair)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key/value pair: %w", err)
	}

	return &pair, nil
}

// Set inserts or updates a key/value pair, preserving CreatedAt on update
func (s *KVStorage) Set(ctx context.Context, key string, value string, description string) error {
	return s.Update(ctx, key, description, func(string, bool) (string, error) {
		return value, nil
	})
}

// maxUpdateAttempts bounds retries when concurrent writers touch the same key
const maxUpdateAttempts = 5

// Update replaces the value of key with fn(current, found) inside one transaction.
// Conflicting concurrent updates are retried, so fn may run more than once.
func (s *KVStorage) Update(ctx context.Context, key string, description string, fn func(current string, found bool) (string, error)) error {
	normalizedKey := normalizeKey(key)
	if normalizedKey == "" {
		return fmt.Errorf("key must not be empty")
	}

	var err error
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = s.hold.Badger().Update(func(tx *badger.Txn) error {
			return s.updateTx(tx, normalizedKey, description, fn)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		s.logger.Debug().Str("key", normalizedKey).Int("attempt", attempt).Msg("Key/value update conflicted, retrying")
	}
	return err
}

func (s *KVStorage) updateTx(tx *badger.Txn, key, description string, fn func(string, bool) (string, error)) error {
	var existing interfaces.KeyValuePair
	found := true
	if err := s.hold.TxGet(tx, key, &existing); err != nil {
		if !errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("failed to read key: %w", err)
		}
		found = false
	}

	value, err := fn(existing.Value, found)
	if err != nil {
		return err
	}

	now := time.Now()
	pair := interfaces.KeyValuePair{
		Key:         key,
		Value:       value,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if found {
		pair.CreatedAt = existing.CreatedAt
	}

	if err := s.hold.TxUpsert(tx, key, &pair); err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}
	return nil
}

// Delete removes a key/value pair
func (s *KVStorage) Delete(ctx context.Context, key string) error {
	err := s.hold.Delete(normalizeKey(key), &interfaces.KeyValuePair{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return interfaces.ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// List returns all key/value pairs ordered by updated_at DESC
func (s *KVStorage) List(ctx context.Context) ([]interfaces.KeyValuePair, error) {
	var pairs []interfaces.KeyValuePair
	err := s.hold.Find(&pairs, badgerhold.Where("Key").Ne("").SortBy("UpdatedAt").Reverse())
	if err != nil {
		return nil, fmt.Errorf("failed to list key/value pairs: %w", err)
	}
	return pairs, nil
}

// ListByPrefix returns key/value pairs whose key starts with prefix, ordered by updated_at DESC
func (s *KVStorage) ListByPrefix(ctx context.Context, prefix string) ([]interfaces.KeyValuePair, error) {
	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(prefix))

	var pairs []interfaces.KeyValuePair
	err := s.hold.Find(&pairs, badgerhold.Where("Key").RegExp(pattern).SortBy("UpdatedAt").Reverse())
	if err != nil {
		return nil, fmt.Errorf("failed to list key/value pairs by prefix %q: %w", prefix, err)
	}
	return pairs, nil
}
