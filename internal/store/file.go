// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/informant/internal/config"
	"github.com/ManuGH/informant/internal/fineprofiling"
	"github.com/ManuGH/informant/internal/log"
	"github.com/ManuGH/informant/internal/metrics"
)

// FileStore keeps the config in a YAML file. The version is derived from the
// file content, so hand edits invalidate outstanding versions automatically.
type FileStore struct {
	path string

	mu     sync.Mutex
	last   string // version of the content this process last read or wrote
	closed bool
}

// OpenFileStore opens (without creating) the YAML file at path.
func OpenFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store: empty path")
	}
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("file store: mkdir: %w", err)
	}
	s := &FileStore{path: path}
	cfg, err := s.load()
	if err != nil {
		return nil, err
	}
	s.last = cfg.Version
	return s, nil
}

func (s *FileStore) Backend() string { return config.StoreFile }

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() (fineprofiling.Config, error) {
	// #nosec G304 -- path comes from operator configuration
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return initial(), nil
	}
	if err != nil {
		return fineprofiling.Config{}, fmt.Errorf("file store: read: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return initial(), nil
	}

	var cfg fineprofiling.Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return fineprofiling.Config{}, fmt.Errorf("file store: decode %s: %w", s.path, err)
	}
	out, err := checked(cfg)
	if err != nil {
		return fineprofiling.Config{}, fmt.Errorf("file store: %s: %w", s.path, err)
	}
	return out, nil
}

func (s *FileStore) Read(ctx context.Context) (fineprofiling.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fineprofiling.Config{}, ErrClosed
	}
	cfg, err := s.load()
	if err != nil {
		return fineprofiling.Config{}, err
	}
	s.last = cfg.Version
	return cfg, nil
}

func (s *FileStore) Write(ctx context.Context, cfg fineprofiling.Config) (fineprofiling.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fineprofiling.Config{}, ErrClosed
	}

	current, err := s.load()
	if err != nil {
		return fineprofiling.Config{}, err
	}
	out, err := next(current, cfg)
	if err != nil {
		return fineprofiling.Config{}, err
	}

	// The version is recomputed on load; keeping it out of the file lets
	// operators edit the YAML by hand.
	onDisk := out
	onDisk.Version = ""
	data, err := yaml.Marshal(onDisk)
	if err != nil {
		return fineprofiling.Config{}, fmt.Errorf("file store: encode: %w", err)
	}

	pf, err := renameio.NewPendingFile(s.path, renameio.WithPermissions(0600))
	if err != nil {
		return fineprofiling.Config{}, fmt.Errorf("file store: pending file: %w", err)
	}
	defer func() { _ = pf.Cleanup() }()
	if _, err := pf.Write(data); err != nil {
		return fineprofiling.Config{}, fmt.Errorf("file store: write: %w", err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fineprofiling.Config{}, fmt.Errorf("file store: replace: %w", err)
	}

	s.last = out.Version
	return out, nil
}

// Watch reports changes to the backing file that were not made through this
// store until ctx is done. onChange receives the new record; it may be nil.
func (s *FileStore) Watch(ctx context.Context, onChange func(fineprofiling.Config)) error {
	logger := log.WithComponent("store")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("file store: create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: atomic replaces swap the inode under the file name.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("file store: watch %s: %w", dir, err)
	}
	logger.Info().Str("path", s.path).Msg("watching config file for external changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			s.checkExternal(onChange)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("config file watcher error")
		}
	}
}

func (s *FileStore) checkExternal(onChange func(fineprofiling.Config)) {
	logger := log.WithComponent("store")

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	cfg, err := s.load()
	if err != nil {
		s.mu.Unlock()
		logger.Warn().Err(err).Str("path", s.path).Msg("ignoring unreadable config file change")
		return
	}
	if cfg.Version == s.last {
		s.mu.Unlock()
		return
	}
	s.last = cfg.Version
	s.mu.Unlock()

	metrics.IncExternalChange(config.StoreFile)
	logger.Info().
		Str(log.FieldEvent, "store.external_change").
		Str(log.FieldVersion, cfg.Version).
		Msg("config file changed outside the API")
	if onChange != nil {
		onChange(cfg)
	}
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
