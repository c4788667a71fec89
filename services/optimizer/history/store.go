// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package history persists completed search results to an embedded
// BadgerDB store.
//
// The store lives entirely outside the search loop: results are written
// after a run completes and read back by the CLI and HTTP surfaces.
// Keys are time-prefixed so lexicographic iteration is chronological.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/CadenceLabs/CadenceCore/services/optimizer/mcts"
)

// ErrNotFound is returned when no record matches the requested run id.
var ErrNotFound = errors.New("history: record not found")

const keyPrefix = "run/"

// Record wraps a stored result with its persistence timestamp.
type Record struct {
	SavedAt time.Time   `json:"saved_at"`
	Result  mcts.Result `json:"result"`
}

// Config holds store configuration.
type Config struct {
	// Path is the directory for the BadgerDB files. Ignored when
	// InMemory is set.
	Path string

	// InMemory runs the store without disk persistence. For tests.
	InMemory bool

	// Logger receives store logs. Nil disables Badger's internal
	// logging entirely.
	Logger *slog.Logger
}

// Store is a badger-backed archive of search results.
//
// Thread Safety: Safe for concurrent use; BadgerDB transactions provide
// isolation.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a history store.
func Open(config Config) (*Store, error) {
	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if config.Path == "" {
			return nil, fmt.Errorf("history: path required for persistent store")
		}
		opts = badger.DefaultOptions(config.Path)
	}

	if config.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: config.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("history: open badger: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists a result and returns the stored record.
func (s *Store) Save(result *mcts.Result) (*Record, error) {
	record := &Record{SavedAt: time.Now().UTC(), Result: *result}

	value, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("history: marshal record: %w", err)
	}

	key := fmt.Sprintf("%s%s/%s", keyPrefix, record.SavedAt.Format(time.RFC3339Nano), result.RunID)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return nil, fmt.Errorf("history: save record: %w", err)
	}
	return record, nil
}

// List returns up to limit records, most recent first. A non-positive
// limit returns everything.
func (s *Store) List(limit int) ([]Record, error) {
	var records []Record

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		// Reverse iteration starts past the end of the prefix range.
		seek := append([]byte(keyPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(records) >= limit {
				break
			}
			var record Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("history: list records: %w", err)
	}
	return records, nil
}

// Get retrieves the record for a run id.
func (s *Store) Get(runID string) (*Record, error) {
	var found *Record

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		suffix := "/" + runID
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if !strings.HasSuffix(string(it.Item().Key()), suffix) {
				continue
			}
			var record Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			found = &record
			return nil
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
