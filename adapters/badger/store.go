// Package badger persists keyed auth state in BadgerDB, the durable stand-in
// for browser local storage.
package badger

import (
	"context"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/voicekey/server/domain/repositories"
)

// Options configures the BadgerDB store.
type Options struct {
	// Dir is the directory for BadgerDB data files. Required unless InMemory.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool
}

// Store is a KeyValue backed by BadgerDB v4.
type Store struct {
	db     *badgerdb.DB
	logger *zap.Logger
}

// Open opens (or creates) the database described by opts.
func Open(opts Options, logger *zap.Logger) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("badger: Dir is required for on-disk mode")
	}
	dbOpts := badgerdb.DefaultOptions(opts.Dir).WithLogger(newLogger(logger))
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badgerdb.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	logger.Info("Opened BadgerDB store",
		zap.String("dir", opts.Dir),
		zap.Bool("in_memory", opts.InMemory))
	return &Store{db: db, logger: logger}, nil
}

// Get implements adapters.KeyValue
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var val []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return val, nil
}

// Set implements adapters.KeyValue
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
