// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuGH/informant/internal/config"
	"github.com/ManuGH/informant/internal/fineprofiling"
	"github.com/ManuGH/informant/internal/log"
)

// RedisOptions holds Redis connection configuration.
type RedisOptions struct {
	Addr     string // Redis server address (host:port)
	Password string // Redis password (optional)
	DB       int    // Redis database number
	Key      string // key holding the JSON record
}

// RedisStore keeps the config as JSON under one key. Writes use
// WATCH/MULTI/EXEC so a concurrent change aborts the transaction.
type RedisStore struct {
	client *redis.Client
	key    string
}

// OpenRedisStore connects and pings the server.
func OpenRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.Key == "" {
		return nil, errors.New("redis store: empty key")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger := log.WithComponent("store")
	logger.Info().
		Str("addr", opts.Addr).
		Int("db", opts.DB).
		Str("key", opts.Key).
		Msg("connected to Redis config store")

	return &RedisStore{client: client, key: opts.Key}, nil
}

func (s *RedisStore) Backend() string { return config.StoreRedis }

func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) get(ctx context.Context, c redis.Cmdable) (fineprofiling.Config, error) {
	buf, err := c.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return initial(), nil
	}
	if errors.Is(err, redis.ErrClosed) {
		return fineprofiling.Config{}, ErrClosed
	}
	if err != nil {
		return fineprofiling.Config{}, fmt.Errorf("redis store: get: %w", err)
	}
	var out fineprofiling.Config
	if err := json.Unmarshal(buf, &out); err != nil {
		return fineprofiling.Config{}, fmt.Errorf("redis store: decode: %w", err)
	}
	return out, nil
}

func (s *RedisStore) Read(ctx context.Context) (fineprofiling.Config, error) {
	return s.get(ctx, s.client)
}

func (s *RedisStore) Write(ctx context.Context, cfg fineprofiling.Config) (fineprofiling.Config, error) {
	var out fineprofiling.Config
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := s.get(ctx, tx)
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
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, buf, 0)
			return nil
		})
		return err
	}, s.key)

	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, redis.TxFailedErr):
		return fineprofiling.Config{}, fmt.Errorf("%w: %w", ErrVersionMismatch, err)
	case errors.Is(err, ErrVersionMismatch), errors.Is(err, ErrClosed):
		return fineprofiling.Config{}, err
	case errors.Is(err, redis.ErrClosed):
		return fineprofiling.Config{}, ErrClosed
	default:
		return fineprofiling.Config{}, fmt.Errorf("redis store: write: %w", err)
	}
}
