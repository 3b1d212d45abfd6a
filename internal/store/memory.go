// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"sync"

	"github.com/ManuGH/informant/internal/config"
	"github.com/ManuGH/informant/internal/fineprofiling"
)

// MemoryStore keeps the config in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	cfg    fineprofiling.Config
	closed bool
}

// NewMemoryStore returns a store seeded with the defaults.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cfg: initial()}
}

func (s *MemoryStore) Backend() string { return config.StoreMemory }

func (s *MemoryStore) Read(ctx context.Context) (fineprofiling.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fineprofiling.Config{}, ErrClosed
	}
	return s.cfg, nil
}

func (s *MemoryStore) Write(ctx context.Context, cfg fineprofiling.Config) (fineprofiling.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fineprofiling.Config{}, ErrClosed
	}
	out, err := next(s.cfg, cfg)
	if err != nil {
		return fineprofiling.Config{}, err
	}
	s.cfg = out
	return out, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
