// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver

	"github.com/ManuGH/informant/internal/config"
	"github.com/ManuGH/informant/internal/fineprofiling"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS fine_profiling (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	doc        TEXT    NOT NULL,
	version    TEXT    NOT NULL,
	updated_at INTEGER NOT NULL
);`

// SQLiteStore keeps the config in a single-row SQLite table. Writes are a
// conditional UPDATE on the stored version.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens or creates the database at path and seeds the row.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite store: empty path")
	}
	// modernc.org/sqlite applies _pragma to every pooled connection.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, (5 * time.Second).Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open failed: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite store: migrate: %w", err)
	}

	seed := initial()
	doc, err := json.Marshal(seed)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO fine_profiling (id, doc, version, updated_at) VALUES (1, ?, ?, ?)`,
		string(doc), seed.Version, time.Now().Unix()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite store: seed: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Backend() string { return config.StoreSQLite }

func (s *SQLiteStore) Read(ctx context.Context) (fineprofiling.Config, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM fine_profiling WHERE id = 1`).Scan(&doc)
	if err != nil {
		return fineprofiling.Config{}, fmt.Errorf("sqlite store: read: %w", err)
	}
	var cfg fineprofiling.Config
	if err := json.Unmarshal([]byte(doc), &cfg); err != nil {
		return fineprofiling.Config{}, fmt.Errorf("sqlite store: decode: %w", err)
	}
	return cfg, nil
}

func (s *SQLiteStore) Write(ctx context.Context, cfg fineprofiling.Config) (fineprofiling.Config, error) {
	out, err := checked(cfg)
	if err != nil {
		return fineprofiling.Config{}, err
	}
	doc, err := json.Marshal(out)
	if err != nil {
		return fineprofiling.Config{}, fmt.Errorf("sqlite store: encode: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE fine_profiling SET doc = ?, version = ?, updated_at = ? WHERE id = 1 AND version = ?`,
		string(doc), out.Version, time.Now().Unix(), cfg.Version)
	if err != nil {
		return fineprofiling.Config{}, fmt.Errorf("sqlite store: update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fineprofiling.Config{}, fmt.Errorf("sqlite store: rows affected: %w", err)
	}
	if n == 0 {
		return fineprofiling.Config{}, fmt.Errorf("%w: got %q", ErrVersionMismatch, cfg.Version)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
