// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/ManuGH/informant/internal/fineprofiling"
)

// Attribute keys shared by client, controller and server spans.
const (
	HTTPStatusCodeKey = "http.status_code"

	ConfigVersionKey    = "fineprofiling.version"
	ConfigThresholdKey  = "fineprofiling.store_threshold_ms"
	ConfigOverriddenKey = "fineprofiling.overridden"
	FormStateKey        = "form.state"
	StoreBackendKey     = "store.backend"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// ConfigAttributes describes the record a span operates on.
func ConfigAttributes(c fineprofiling.Config) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int(ConfigThresholdKey, c.StoreThresholdMillis),
		attribute.Bool(ConfigOverriddenKey, c.Overridden()),
	}
	if c.Version != "" {
		attrs = append(attrs, attribute.String(ConfigVersionKey, c.Version))
	}
	return attrs
}

// ErrorAttributes marks a span as failed with a coarse error class.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
