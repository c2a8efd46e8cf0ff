package badger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/greattrades/internal/common"
	"github.com/ternarybob/greattrades/internal/interfaces"
)

// Store owns the badgerhold database holding per-user history, settings and provider keys
type Store struct {
	hold     *badgerhold.Store
	kv       *KVStorage
	path     string
	inMemory bool
	logger   arbor.ILogger
}

// Open opens (or creates) the database described by config
func Open(logger arbor.ILogger, config *common.BadgerConfig) (*Store, error) {
	options := badgerhold.DefaultOptions

	switch {
	case config.InMemory:
		options.Options = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	default:
		if config.ResetOnStartup {
			logger.Warn().Str("path", config.Path).Msg("reset_on_startup set, deleting stored history and settings")
			if err := os.RemoveAll(config.Path); err != nil {
				return nil, fmt.Errorf("failed to reset database directory: %w", err)
			}
		}
		if err := os.MkdirAll(filepath.Clean(config.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		options.Options = badger.DefaultOptions(config.Path).WithLogger(nil)
	}

	hold, err := badgerhold.Open(options)
	if err != nil {
		// Badger holds a directory lock, so a running server blocks CLI runs on the same path
		return nil, fmt.Errorf("failed to open badger database at %s: %w", config.Path, err)
	}

	s := &Store{
		hold:     hold,
		path:     config.Path,
		inMemory: config.InMemory,
		logger:   logger,
	}
	s.kv = &KVStorage{hold: hold, logger: logger}

	logger.Debug().Str("path", config.Path).Bool("in_memory", config.InMemory).Msg("Badger store opened")
	return s, nil
}

// KeyValueStorage returns the key/value view of the store
func (s *Store) KeyValueStorage() interfaces.KeyValueStorage {
	return s.kv
}

// Stats reports the on-disk footprint of the store
func (s *Store) Stats() interfaces.StorageStats {
	lsm, vlog := s.hold.Badger().Size()
	return interfaces.StorageStats{
		Backend:   "badger",
		Path:      s.path,
		InMemory:  s.inMemory,
		LSMBytes:  lsm,
		VLogBytes: vlog,
	}
}

// Close flushes and closes the database
func (s *Store) Close() error {
	if s.hold == nil {
		return nil
	}
	err := s.hold.Close()
	s.hold = nil
	return err
}
