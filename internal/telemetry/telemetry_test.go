// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ManuGH/informant/internal/fineprofiling"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false, Exporter: "grpc"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if p.tp != nil {
		t.Error("expected noop provider")
	}
	_, span := otel.Tracer("test").Start(context.Background(), "noop-check")
	if span.IsRecording() {
		t.Error("expected non-recording span")
	}
	span.End()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, Exporter: "zipkin"})
	if !errors.Is(err, ErrUnsupportedExporter) {
		t.Fatalf("expected ErrUnsupportedExporter, got %v", err)
	}
}

func TestConfigAttributes(t *testing.T) {
	attrs := ConfigAttributes(fineprofiling.Config{StoreThresholdMillis: fineprofiling.NoOverride, Version: "v1"})
	got := map[attribute.Key]attribute.Value{}
	for _, a := range attrs {
		got[a.Key] = a.Value
	}
	if got[ConfigOverriddenKey].AsBool() {
		t.Error("expected overridden=false for -1")
	}
	if got[ConfigVersionKey].AsString() != "v1" {
		t.Errorf("version = %q", got[ConfigVersionKey].AsString())
	}

	attrs = ConfigAttributes(fineprofiling.Config{StoreThresholdMillis: 10})
	if n := len(attrs); n != 2 {
		t.Errorf("expected 2 attributes without version, got %d", n)
	}
	if !attrs[1].Value.AsBool() {
		t.Error("expected overridden=true for 10")
	}
}
