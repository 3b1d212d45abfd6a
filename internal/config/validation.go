// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"github.com/ManuGH/informant/internal/validate"
)

// Validate validates an AppConfig using the centralized validation package
func Validate(cfg AppConfig) error {
	v := validate.New()

	if _, err := validate.ParseLogLevel(cfg.LogLevel); err != nil {
		v.AddError("LogLevel", "must be one of debug, info, warn, error", cfg.LogLevel)
	}

	v.URL("Client.BaseURL", cfg.Client.BaseURL, []string{"http", "https"})
	if cfg.Client.Timeout <= 0 {
		v.AddError("Client.Timeout", "must be positive", cfg.Client.Timeout)
	}
	if cfg.Client.RateLimit < 0 {
		v.AddError("Client.RateLimit", "cannot be negative", cfg.Client.RateLimit)
	}
	v.Range("Client.RateBurst", cfg.Client.RateBurst, 1, 1000)

	v.ListenAddr("Server.ListenAddr", cfg.Server.ListenAddr)
	v.Range("Server.WriteRateLimit", cfg.Server.WriteRateLimit, 1, 100000)
	v.AtLeast("Server.GeneralStoreThresholdMillis", cfg.Server.GeneralStoreThresholdMillis, 0)
	for _, origin := range cfg.Server.AllowedOrigins {
		if origin == "*" {
			continue
		}
		v.URL("Server.AllowedOrigins", origin, []string{"http", "https"})
	}

	v.OneOf("Store.Backend", cfg.Store.Backend, StoreBackends)
	switch cfg.Store.Backend {
	case StoreFile, StoreSQLite, StoreBadger:
		v.NotEmpty("Store.Path", cfg.Store.Path)
	case StoreRedis:
		v.NotEmpty("Store.RedisAddr", cfg.Store.RedisAddr)
		v.NotEmpty("Store.RedisKey", cfg.Store.RedisKey)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("Telemetry.Exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("Telemetry.Endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("Telemetry.SamplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	return v.Err()
}
