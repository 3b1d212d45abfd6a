// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envCSV(key string, defaultVal []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseCSV(key, defaultVal)
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel: "info",
		Client: ClientConfig{
			BaseURL:   "http://127.0.0.1:4000",
			Timeout:   30 * time.Second,
			RateBurst: 1,
			UserAgent: "fineprof",
		},
		Server: ServerConfig{
			ListenAddr:                  ":4000",
			WriteRateLimit:              60,
			GeneralStoreThresholdMillis: 3000,
			ShutdownTimeout:             10 * time.Second,
		},
		Store: StoreConfig{
			Backend:  StoreMemory,
			RedisKey: "informant:config:fine-profiling",
		},
		Telemetry: TelemetryConfig{
			Exporter:     "http",
			Endpoint:     "localhost:4318",
			SamplingRate: 1.0,
		},
	}
}

// Load loads configuration with precedence: ENV > File > Defaults, then validates.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

// LoadFileConfig loads a YAML config file without applying defaults or env overrides.
func LoadFileConfig(path string) (*FileConfig, error) {
	return NewLoader(path, "").loadFile(path)
}

func mergeFileConfig(cfg *AppConfig, f *FileConfig) error {
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}

	if f.Client.BaseURL != "" {
		cfg.Client.BaseURL = f.Client.BaseURL
	}
	if f.Client.Timeout != "" {
		d, err := time.ParseDuration(f.Client.Timeout)
		if err != nil {
			return fmt.Errorf("client.timeout: %w", err)
		}
		cfg.Client.Timeout = d
	}
	if f.Client.RateLimit != nil {
		cfg.Client.RateLimit = *f.Client.RateLimit
	}
	if f.Client.RateBurst != nil {
		cfg.Client.RateBurst = *f.Client.RateBurst
	}
	if f.Client.UserAgent != "" {
		cfg.Client.UserAgent = f.Client.UserAgent
	}

	if f.Server.ListenAddr != "" {
		cfg.Server.ListenAddr = f.Server.ListenAddr
	}
	if f.Server.AllowedOrigins != nil {
		cfg.Server.AllowedOrigins = append([]string(nil), f.Server.AllowedOrigins...)
	}
	if f.Server.WriteRateLimit != nil {
		cfg.Server.WriteRateLimit = *f.Server.WriteRateLimit
	}
	if f.Server.GeneralStoreThresholdMillis != nil {
		cfg.Server.GeneralStoreThresholdMillis = *f.Server.GeneralStoreThresholdMillis
	}
	if f.Server.ShutdownTimeout != "" {
		d, err := time.ParseDuration(f.Server.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("server.shutdownTimeout: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if f.Store.Backend != "" {
		cfg.Store.Backend = f.Store.Backend
	}
	if f.Store.Path != "" {
		cfg.Store.Path = os.ExpandEnv(f.Store.Path)
	}
	if f.Store.RedisAddr != "" {
		cfg.Store.RedisAddr = f.Store.RedisAddr
	}
	if f.Store.RedisKey != "" {
		cfg.Store.RedisKey = f.Store.RedisKey
	}

	if f.Telemetry.Enabled != nil {
		cfg.Telemetry.Enabled = *f.Telemetry.Enabled
	}
	if f.Telemetry.Exporter != "" {
		cfg.Telemetry.Exporter = f.Telemetry.Exporter
	}
	if f.Telemetry.Endpoint != "" {
		cfg.Telemetry.Endpoint = f.Telemetry.Endpoint
	}
	if f.Telemetry.SamplingRate != nil {
		cfg.Telemetry.SamplingRate = *f.Telemetry.SamplingRate
	}
	return nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)

	cfg.Client.BaseURL = l.envString(EnvBackendURL, cfg.Client.BaseURL)
	cfg.Client.Timeout = l.envDuration(EnvTimeout, cfg.Client.Timeout)
	cfg.Client.RateLimit = l.envFloat(EnvRateLimit, cfg.Client.RateLimit)
	cfg.Client.RateBurst = l.envInt(EnvRateBurst, cfg.Client.RateBurst)
	cfg.Client.UserAgent = l.envString(EnvUserAgent, cfg.Client.UserAgent)

	cfg.Server.ListenAddr = l.envString(EnvListenAddr, cfg.Server.ListenAddr)
	cfg.Server.AllowedOrigins = l.envCSV(EnvAllowedOrigins, cfg.Server.AllowedOrigins)
	cfg.Server.WriteRateLimit = l.envInt(EnvWriteRateLimit, cfg.Server.WriteRateLimit)
	cfg.Server.GeneralStoreThresholdMillis = l.envInt(EnvGeneralStoreMS, cfg.Server.GeneralStoreThresholdMillis)
	cfg.Server.ShutdownTimeout = l.envDuration(EnvShutdownTimeout, cfg.Server.ShutdownTimeout)

	cfg.Store.Backend = l.envString(EnvStoreBackend, cfg.Store.Backend)
	cfg.Store.Path = l.envString(EnvStorePath, cfg.Store.Path)
	cfg.Store.RedisAddr = l.envString(EnvRedisAddr, cfg.Store.RedisAddr)
	cfg.Store.RedisKey = l.envString(EnvRedisKey, cfg.Store.RedisKey)

	cfg.Telemetry.Enabled = l.envBool(EnvOTelEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString(EnvOTelExporter, cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString(EnvOTelEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat(EnvOTelSampling, cfg.Telemetry.SamplingRate)
}
