// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConfigWritesTotal counts write attempts handled by the reference server.
	ConfigWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "informant_config_writes_total",
		Help: "Config writes handled by the server by store backend and result",
	}, []string{"backend", "result"})

	// ConfigExternalChangesTotal counts store changes not made through the API.
	ConfigExternalChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "informant_config_external_changes_total",
		Help: "Config changes detected outside the API (e.g. file edits)",
	}, []string{"backend"})
)

// IncConfigWrite records a server-side write outcome.
func IncConfigWrite(backend, result string) {
	ConfigWritesTotal.WithLabelValues(backend, result).Inc()
}

// IncExternalChange records a change picked up from outside the API.
func IncExternalChange(backend string) {
	ConfigExternalChangesTotal.WithLabelValues(backend).Inc()
}
