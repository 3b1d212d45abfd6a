// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/ManuGH/informant/internal/config"
	"github.com/ManuGH/informant/internal/fineprofiling"
)

var badgerKey = []byte("cfg:fine-profiling")

// BadgerStore keeps the config under a single key. Concurrent writers are
// serialised by badger's optimistic transactions.
type BadgerStore struct {
	db *badger.DB
}

func OpenBadgerStore(path string) (*BadgerStore, error) {
	if path == "" {
		return nil, errors.New("badger store: empty path")
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger store: open: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Backend() string { return config.StoreBadger }

func (s *BadgerStore) Close() error { return s.db.Close() }

func getConfig(txn *badger.Txn) (fineprofiling.Config, error) {
	item, err := txn.Get(badgerKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return initial(), nil
	}
	if err != nil {
		return fineprofiling.Config{}, err
	}
	var out fineprofiling.Config
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &out)
	})
	return out, err
}

func (s *BadgerStore) Read(ctx context.Context) (fineprofiling.Config, error) {
	var out fineprofiling.Config
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = getConfig(txn)
		return err
	})
	if errors.Is(err, badger.ErrDBClosed) {
		return fineprofiling.Config{}, ErrClosed
	}
	if err != nil {
		return fineprofiling.Config{}, fmt.Errorf("badger store: read: %w", err)
	}
	return out, nil
}

func (s *BadgerStore) Write(ctx context.Context, cfg fineprofiling.Config) (fineprofiling.Config, error) {
	var out fineprofiling.Config
	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := getConfig(txn)
		if err != nil {
			return err
		}
		out, err = next(current, cfg)
		if err != nil {
			return err
		}
		buf, err := json.Marshal(out)
		if err != nil {
			return err
		}
		return txn.Set(badgerKey, buf)
	})
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, ErrVersionMismatch):
		return fineprofiling.Config{}, err
	case errors.Is(err, badger.ErrConflict):
		// Another writer committed between our read and commit.
		return fineprofiling.Config{}, fmt.Errorf("%w: %w", ErrVersionMismatch, err)
	case errors.Is(err, badger.ErrDBClosed):
		return fineprofiling.Config{}, ErrClosed
	default:
		return fineprofiling.Config{}, fmt.Errorf("badger store: write: %w", err)
	}
}
