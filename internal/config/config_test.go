// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := NewLoader("", "1.2.3").Load()
	require.NoError(t, err)

	want := Defaults()
	want.Version = "1.2.3"
	assert.Equal(t, want, cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
logLevel: debug
client:
  baseURL: https://backend.example:8443
  timeout: 5s
  rateLimit: 2.5
server:
  listenAddr: 127.0.0.1:9000
  generalStoreThresholdMillis: 1000
store:
  backend: sqlite
  path: /var/lib/informant/config.db
`)

	cfg, err := NewLoader(path, "dev").Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://backend.example:8443", cfg.Client.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.InDelta(t, 2.5, cfg.Client.RateLimit, 1e-9)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.ListenAddr)
	assert.Equal(t, 1000, cfg.Server.GeneralStoreThresholdMillis)
	assert.Equal(t, StoreSQLite, cfg.Store.Backend)
	assert.Equal(t, "/var/lib/informant/config.db", cfg.Store.Path)
	// untouched values keep their defaults
	assert.Equal(t, Defaults().Server.WriteRateLimit, cfg.Server.WriteRateLimit)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "client:\n  baseURL: http://from-file:4000\n")
	t.Setenv(EnvBackendURL, "http://from-env:4000")
	t.Setenv(EnvAllowedOrigins, "http://a.example, http://b.example,")
	t.Setenv(EnvOTelEnabled, "yes")

	l := NewLoader(path, "")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:4000", cfg.Client.BaseURL)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Contains(t, l.ConsumedEnvKeys, EnvBackendURL)
	assert.Contains(t, l.ConsumedEnvKeys, EnvRedisKey)
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv(EnvRateBurst, "many")
	t.Setenv(EnvTimeout, "soon")

	cfg, err := NewLoader("", "").Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults().Client.RateBurst, cfg.Client.RateBurst)
	assert.Equal(t, Defaults().Client.Timeout, cfg.Client.Timeout)
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, "client:\n  baseUrl: http://typo:4000\n")

	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestLoad_MultipleDocumentsRejected(t *testing.T) {
	path := writeConfig(t, "logLevel: info\n---\nlogLevel: debug\n")

	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple documents")
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults().Client.BaseURL, cfg.Client.BaseURL)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))

	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config format")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "defaults", mutate: func(*AppConfig) {}},
		{
			name:    "bad log level",
			mutate:  func(c *AppConfig) { c.LogLevel = "loud" },
			wantErr: "LogLevel",
		},
		{
			name:    "bad base url scheme",
			mutate:  func(c *AppConfig) { c.Client.BaseURL = "ftp://host" },
			wantErr: "Client.BaseURL",
		},
		{
			name:    "unknown store",
			mutate:  func(c *AppConfig) { c.Store.Backend = "etcd" },
			wantErr: "Store.Backend",
		},
		{
			name:    "file store without path",
			mutate:  func(c *AppConfig) { c.Store.Backend = StoreFile },
			wantErr: "Store.Path",
		},
		{
			name:    "redis store without address",
			mutate:  func(c *AppConfig) { c.Store.Backend = StoreRedis },
			wantErr: "Store.RedisAddr",
		},
		{
			name:    "listen addr without port",
			mutate:  func(c *AppConfig) { c.Server.ListenAddr = "localhost" },
			wantErr: "Server.ListenAddr",
		},
		{
			name:    "negative general threshold",
			mutate:  func(c *AppConfig) { c.Server.GeneralStoreThresholdMillis = -5 },
			wantErr: "Server.GeneralStoreThresholdMillis",
		},
		{
			name: "telemetry sampling out of range",
			mutate: func(c *AppConfig) {
				c.Telemetry.Enabled = true
				c.Telemetry.SamplingRate = 2
			},
			wantErr: "Telemetry.SamplingRate",
		},
		{
			name:   "wildcard origin",
			mutate: func(c *AppConfig) { c.Server.AllowedOrigins = []string{"*"} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestManagerSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Defaults()
	cfg.LogLevel = "warn"
	cfg.Client.Timeout = 3 * time.Second
	cfg.Store.Backend = StoreBadger
	cfg.Store.Path = "/tmp/informant-badger"
	cfg.Telemetry.SamplingRate = 0.25

	require.NoError(t, NewManager(path).Save(cfg))

	loaded, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestToFileConfig_OmitsDefaults(t *testing.T) {
	f := ToFileConfig(Defaults())
	assert.Empty(t, f.LogLevel)
	assert.Empty(t, f.Client.BaseURL)
	assert.Nil(t, f.Client.RateBurst)
	assert.Nil(t, f.Telemetry.Enabled)
}

func TestParseBool(t *testing.T) {
	const key = "INFORMANT_TEST_BOOL"
	for _, v := range []string{"true", "TRUE", "1", "yes"} {
		t.Setenv(key, v)
		assert.True(t, ParseBool(key, false), v)
	}
	for _, v := range []string{"false", "0", "No"} {
		t.Setenv(key, v)
		assert.False(t, ParseBool(key, true), v)
	}
	t.Setenv(key, "maybe")
	assert.True(t, ParseBool(key, true))
	t.Setenv(key, "")
	assert.False(t, ParseBool(key, false))
}
