// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package store persists the fine-profiling config for the reference server.
// Every backend implements the same optimistic-concurrency contract: a write
// succeeds only if it carries the version currently stored.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuGH/informant/internal/fineprofiling"
)

var (
	// ErrVersionMismatch is returned by Write when the submitted version is stale.
	ErrVersionMismatch = errors.New("config version mismatch")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store closed")
)

// Store is the persistence contract shared by all backends.
type Store interface {
	// Read returns the stored config. An empty store yields the stamped defaults.
	Read(ctx context.Context) (fineprofiling.Config, error)
	// Write replaces the stored config if cfg.Version matches the stored
	// version and returns the persisted record carrying its new version.
	Write(ctx context.Context, cfg fineprofiling.Config) (fineprofiling.Config, error)
	// Backend names the implementation for logs and metrics.
	Backend() string
	Close() error
}

// initial is the record an empty store reports.
func initial() fineprofiling.Config {
	cfg, err := fineprofiling.Stamp(fineprofiling.Defaults())
	if err != nil {
		// Defaults are finite constants.
		panic(err)
	}
	return cfg
}

// checked validates cfg and stamps its version.
func checked(cfg fineprofiling.Config) (fineprofiling.Config, error) {
	if err := fineprofiling.Validate(cfg); err != nil {
		return fineprofiling.Config{}, err
	}
	return fineprofiling.Stamp(cfg)
}

// next checks cfg against the current record and returns the record to persist.
func next(current, cfg fineprofiling.Config) (fineprofiling.Config, error) {
	if cfg.Version != current.Version {
		return fineprofiling.Config{}, fmt.Errorf("%w: have %q, got %q", ErrVersionMismatch, current.Version, cfg.Version)
	}
	return checked(cfg)
}
