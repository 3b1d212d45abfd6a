// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config provides settings for the fineprof client and the reference
// server: defaults, a strict YAML file and INFORMANT_* environment overrides.
package config

import "time"

// Store backend names.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreBadger = "badger"
	StoreRedis  = "redis"
)

// StoreBackends lists every supported store backend.
var StoreBackends = []string{StoreMemory, StoreFile, StoreSQLite, StoreBadger, StoreRedis}

// AppConfig is the effective configuration after defaults, file and env.
type AppConfig struct {
	Version  string
	LogLevel string

	Client    ClientConfig
	Server    ServerConfig
	Store     StoreConfig
	Telemetry TelemetryConfig
}

// ClientConfig controls how fineprof reaches the backend.
type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 = unlimited
	RateBurst int
	UserAgent string
}

// ServerConfig controls the reference backend.
type ServerConfig struct {
	ListenAddr     string
	AllowedOrigins []string
	// WriteRateLimit is the number of writes per minute per client IP.
	WriteRateLimit int
	// GeneralStoreThresholdMillis is served alongside the config as the
	// fallback for a non-overridden store threshold.
	GeneralStoreThresholdMillis int
	ShutdownTimeout             time.Duration
}

// StoreConfig selects and addresses the persistence backend.
type StoreConfig struct {
	Backend   string
	Path      string // file, sqlite, badger
	RedisAddr string
	RedisKey  string
}

// TelemetryConfig mirrors telemetry.Config.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	SamplingRate float64
}

// FileConfig is the on-disk YAML shape. Pointers distinguish "unset" from
// zero values.
type FileConfig struct {
	LogLevel  string              `yaml:"logLevel,omitempty"`
	Client    FileClientConfig    `yaml:"client,omitempty"`
	Server    FileServerConfig    `yaml:"server,omitempty"`
	Store     FileStoreConfig     `yaml:"store,omitempty"`
	Telemetry FileTelemetryConfig `yaml:"telemetry,omitempty"`
}

type FileClientConfig struct {
	BaseURL   string   `yaml:"baseURL,omitempty"`
	Timeout   string   `yaml:"timeout,omitempty"`
	RateLimit *float64 `yaml:"rateLimit,omitempty"`
	RateBurst *int     `yaml:"rateBurst,omitempty"`
	UserAgent string   `yaml:"userAgent,omitempty"`
}

type FileServerConfig struct {
	ListenAddr                  string   `yaml:"listenAddr,omitempty"`
	AllowedOrigins              []string `yaml:"allowedOrigins,omitempty"`
	WriteRateLimit              *int     `yaml:"writeRateLimit,omitempty"`
	GeneralStoreThresholdMillis *int     `yaml:"generalStoreThresholdMillis,omitempty"`
	ShutdownTimeout             string   `yaml:"shutdownTimeout,omitempty"`
}

type FileStoreConfig struct {
	Backend   string `yaml:"backend,omitempty"`
	Path      string `yaml:"path,omitempty"`
	RedisAddr string `yaml:"redisAddr,omitempty"`
	RedisKey  string `yaml:"redisKey,omitempty"`
}

type FileTelemetryConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}
