// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fineprofiling holds the fine-profiling configuration record shared by
// the form controller, the backend client and the reference server.
package fineprofiling

// NoOverride is the StoreThresholdMillis sentinel meaning "use the general
// store threshold".
const NoOverride = -1

// Config is the fine-profiling configuration as exchanged with the backend.
type Config struct {
	Enabled              bool    `json:"enabled" yaml:"enabled"`
	TracePercentage      float64 `json:"tracePercentage" yaml:"tracePercentage"`
	IntervalMillis       int     `json:"intervalMillis" yaml:"intervalMillis"`
	TotalSeconds         int     `json:"totalSeconds" yaml:"totalSeconds"`
	StoreThresholdMillis int     `json:"storeThresholdMillis" yaml:"storeThresholdMillis"`
	Version              string  `json:"version" yaml:"version"`
}

// Section is the read-endpoint payload: the config plus the general store
// threshold the override falls back to.
type Section struct {
	Config                      Config `json:"config"`
	GeneralStoreThresholdMillis int    `json:"generalStoreThresholdMillis"`
}

// Overridden reports whether the config carries its own store threshold.
func (c Config) Overridden() bool {
	return c.StoreThresholdMillis != NoOverride
}

// Defaults returns the configuration a fresh installation starts with.
func Defaults() Config {
	return Config{
		Enabled:              false,
		TracePercentage:      0,
		IntervalMillis:       50,
		TotalSeconds:         10,
		StoreThresholdMillis: NoOverride,
	}
}
