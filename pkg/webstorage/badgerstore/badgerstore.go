// Package badgerstore provides a BadgerDB implementation of the
// webstorage.Backend interface. It offers durable storage for entries that
// must survive process restarts, using the embedded key-value database
// BadgerDB.
package badgerstore

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/friends-of-js/web-storage/pkg/webstorage"
)

// Store implements webstorage.Backend on a BadgerDB database. Keys
// enumerate in byte order. A write the database refuses as too large fails
// with webstorage.ErrQuotaExceeded, so facades report it as a capacity
// rejection rather than an error.
type Store struct {
	db  *badger.DB
	log zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for read faults, which Get, Len and Key
// swallow and report as absent. Logging is off by default.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// Open opens or creates a BadgerDB database at path. Badger's own stderr
// logging is disabled; use WithLogger for fault reporting.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db at %q: %w", path, err)
	}
	s := &Store{db: db, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Verify it implements the interface
var _ webstorage.Backend = (*Store)(nil)

// Len counts the entries currently stored.
func (s *Store) Len() int {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(keysOnlyOptions())
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("len scan failed")
		return 0
	}
	return count
}

// Key returns the key at position i in byte order, with false when i is at
// or past the end.
func (s *Store) Key(i int) (string, bool) {
	if i < 0 {
		panic("badgerstore: negative index")
	}

	var key string
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(keysOnlyOptions())
		defer it.Close()
		pos := 0
		for it.Rewind(); it.Valid(); it.Next() {
			if pos == i {
				key = string(it.Item().Key())
				found = true
				return nil
			}
			pos++
		}
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Int("index", i).Msg("key scan failed")
		return "", false
	}
	return key, found
}

// Get retrieves the value for a key. Read faults are logged and reported
// as absent.
func (s *Store) Get(key string) (string, bool) {
	var value string
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			found = true
			return nil
		})
	})
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("read failed")
		return "", false
	}
	return value, found
}

// Set stores a value by key.
func (s *Store) Set(key, value string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		if errors.Is(err, badger.ErrTxnTooBig) {
			return fmt.Errorf("%w: %v", webstorage.ErrQuotaExceeded, err)
		}
		return fmt.Errorf("failed to store %q: %w", key, err)
	}
	return nil
}

// Remove deletes a key. Removing an absent key succeeds.
func (s *Store) Remove(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Clear drops all entries.
func (s *Store) Clear() error {
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("failed to drop entries: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// keysOnlyOptions returns iterator options that skip value prefetching,
// for enumeration scans that never touch values.
func keysOnlyOptions() badger.IteratorOptions {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	return opts
}
