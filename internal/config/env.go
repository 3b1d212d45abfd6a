// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/informant/internal/log"
)

// Environment keys.
const (
	EnvLogLevel        = "INFORMANT_LOG_LEVEL"
	EnvBackendURL      = "INFORMANT_BACKEND_URL"
	EnvTimeout         = "INFORMANT_TIMEOUT"
	EnvRateLimit       = "INFORMANT_RATE_LIMIT"
	EnvRateBurst       = "INFORMANT_RATE_BURST"
	EnvUserAgent       = "INFORMANT_USER_AGENT"
	EnvListenAddr      = "INFORMANT_LISTEN"
	EnvAllowedOrigins  = "INFORMANT_ALLOWED_ORIGINS"
	EnvWriteRateLimit  = "INFORMANT_WRITE_RATE_LIMIT"
	EnvGeneralStoreMS  = "INFORMANT_GENERAL_STORE_THRESHOLD_MS"
	EnvShutdownTimeout = "INFORMANT_SHUTDOWN_TIMEOUT"
	EnvStoreBackend    = "INFORMANT_STORE"
	EnvStorePath       = "INFORMANT_STORE_PATH"
	EnvRedisAddr       = "INFORMANT_REDIS_ADDR"
	EnvRedisKey        = "INFORMANT_REDIS_KEY"
	EnvOTelEnabled     = "INFORMANT_OTEL_ENABLED"
	EnvOTelExporter    = "INFORMANT_OTEL_EXPORTER"
	EnvOTelEndpoint    = "INFORMANT_OTEL_ENDPOINT"
	EnvOTelSampling    = "INFORMANT_OTEL_SAMPLING_RATE"
)

// parseEnv looks key up and converts it. Empty or malformed values fall back
// to defaultValue; malformed ones are logged at warn level.
func parseEnv[T any](key string, defaultValue T, conv func(string) (T, error)) T {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().Str("key", key).Str("source", "default").Msg("using default value")
		return defaultValue
	}
	parsed, err := conv(v)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Err(err).Msg("invalid environment variable, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Str("source", "environment").Msg("using environment variable")
	return parsed
}

// ParseString reads a string from environment variable or returns default value.
func ParseString(key, defaultValue string) string {
	return parseEnv(key, defaultValue, func(s string) (string, error) { return s, nil })
}

// ParseInt reads an integer from environment variable or returns default value.
func ParseInt(key string, defaultValue int) int {
	return parseEnv(key, defaultValue, strconv.Atoi)
}

// ParseFloat reads a float64 from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	return parseEnv(key, defaultValue, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// ParseDuration reads a Go duration ("5s") from environment variable or returns default value.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(key, defaultValue, time.ParseDuration)
}

// ParseBool accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	return parseEnv(key, defaultValue, func(s string) (bool, error) {
		switch strings.ToLower(s) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return false, strconv.ErrSyntax
	})
}

// ParseCSV reads a comma-separated list, trimming blanks.
func ParseCSV(key string, defaultValue []string) []string {
	return parseEnv(key, defaultValue, func(s string) ([]string, error) {
		return splitCSV(s), nil
	})
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
