// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// Manager handles configuration persistence.
type Manager struct {
	configPath string
}

// NewManager creates a new configuration manager.
func NewManager(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
	}
}

// Save writes cfg to disk atomically. Only settings that differ from the
// defaults are written so that later default changes still apply.
func (m *Manager) Save(cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0750); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	data, err := yaml.Marshal(ToFileConfig(cfg))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := renameio.WriteFile(m.configPath, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ToFileConfig maps the effective config back to its file form, omitting
// values equal to the defaults.
func ToFileConfig(cfg AppConfig) FileConfig {
	def := Defaults()
	var f FileConfig

	if cfg.LogLevel != def.LogLevel {
		f.LogLevel = cfg.LogLevel
	}

	if cfg.Client.BaseURL != def.Client.BaseURL {
		f.Client.BaseURL = cfg.Client.BaseURL
	}
	if cfg.Client.Timeout != def.Client.Timeout {
		f.Client.Timeout = cfg.Client.Timeout.String()
	}
	if cfg.Client.RateLimit != def.Client.RateLimit {
		f.Client.RateLimit = float64Ptr(cfg.Client.RateLimit)
	}
	if cfg.Client.RateBurst != def.Client.RateBurst {
		f.Client.RateBurst = intPtr(cfg.Client.RateBurst)
	}
	if cfg.Client.UserAgent != def.Client.UserAgent {
		f.Client.UserAgent = cfg.Client.UserAgent
	}

	if cfg.Server.ListenAddr != def.Server.ListenAddr {
		f.Server.ListenAddr = cfg.Server.ListenAddr
	}
	if len(cfg.Server.AllowedOrigins) > 0 {
		f.Server.AllowedOrigins = append([]string(nil), cfg.Server.AllowedOrigins...)
	}
	if cfg.Server.WriteRateLimit != def.Server.WriteRateLimit {
		f.Server.WriteRateLimit = intPtr(cfg.Server.WriteRateLimit)
	}
	if cfg.Server.GeneralStoreThresholdMillis != def.Server.GeneralStoreThresholdMillis {
		f.Server.GeneralStoreThresholdMillis = intPtr(cfg.Server.GeneralStoreThresholdMillis)
	}
	if cfg.Server.ShutdownTimeout != def.Server.ShutdownTimeout {
		f.Server.ShutdownTimeout = cfg.Server.ShutdownTimeout.String()
	}

	if cfg.Store.Backend != def.Store.Backend {
		f.Store.Backend = cfg.Store.Backend
	}
	f.Store.Path = cfg.Store.Path
	f.Store.RedisAddr = cfg.Store.RedisAddr
	if cfg.Store.RedisKey != def.Store.RedisKey {
		f.Store.RedisKey = cfg.Store.RedisKey
	}

	if cfg.Telemetry.Enabled != def.Telemetry.Enabled {
		f.Telemetry.Enabled = boolPtr(cfg.Telemetry.Enabled)
	}
	if cfg.Telemetry.Exporter != def.Telemetry.Exporter {
		f.Telemetry.Exporter = cfg.Telemetry.Exporter
	}
	if cfg.Telemetry.Endpoint != def.Telemetry.Endpoint {
		f.Telemetry.Endpoint = cfg.Telemetry.Endpoint
	}
	if cfg.Telemetry.SamplingRate != def.Telemetry.SamplingRate {
		f.Telemetry.SamplingRate = float64Ptr(cfg.Telemetry.SamplingRate)
	}
	return f
}

func boolPtr(b bool) *bool          { return &b }
func intPtr(i int) *int             { return &i }
func float64Ptr(f float64) *float64 { return &f }
