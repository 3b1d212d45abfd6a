// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/informant/internal/config"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	cfg := config.Defaults()
	cfg.Server.ListenAddr = freeAddr(t)
	cfg.Store.Backend = config.StoreFile
	cfg.Store.Path = filepath.Join(t.TempDir(), "fine-profiling.yaml")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg) }()

	url := "http://" + cfg.Server.ListenAddr + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) // #nosec G107 -- local test server
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestRun_BadStore(t *testing.T) {
	cfg := config.Defaults()
	cfg.Store.Backend = "etcd"
	err := run(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open store")
}

func TestConfigInitThenValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	storePath := filepath.Join(t.TempDir(), "config.db")

	require.Equal(t, 0, runConfigCLI([]string{"init", "-f", path, "--store", config.StoreSQLite, "--store-path", storePath}))
	assert.Equal(t, 1, runConfigCLI([]string{"init", "-f", path}))
	assert.Equal(t, 0, runConfigCLI([]string{"validate", "-f", path}))

	cfg, err := config.NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, config.StoreSQLite, cfg.Store.Backend)
	assert.Equal(t, storePath, cfg.Store.Path)
}

func TestConfigCLI_Usage(t *testing.T) {
	assert.Equal(t, 0, runConfigCLI(nil))
	assert.Equal(t, 2, runConfigCLI([]string{"bogus"}))
	assert.Equal(t, 2, runConfigCLI([]string{"validate"}))
	assert.Equal(t, 1, runConfigCLI([]string{"init", "-f", filepath.Join(t.TempDir(), "x.yaml"), "--store", "file"}))
}
