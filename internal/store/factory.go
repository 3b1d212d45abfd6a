// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"fmt"

	"github.com/ManuGH/informant/internal/config"
)

// Open creates a Store based on the backend configuration.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.StoreMemory, "":
		return NewMemoryStore(), nil
	case config.StoreFile:
		return OpenFileStore(cfg.Path)
	case config.StoreSQLite:
		return OpenSQLiteStore(cfg.Path)
	case config.StoreBadger:
		return OpenBadgerStore(cfg.Path)
	case config.StoreRedis:
		return OpenRedisStore(RedisOptions{Addr: cfg.RedisAddr, Key: cfg.RedisKey})
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}
