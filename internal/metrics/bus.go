// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NavigationEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "informant_navigation_events_total",
		Help: "Navigation events published on the in-process bus by outcome",
	}, []string{"event", "outcome"})
)

// IncNavigation records a navigation event and whether a listener prevented it.
func IncNavigation(event string, prevented bool) {
	if event == "" {
		event = "unknown"
	}
	outcome := "allowed"
	if prevented {
		outcome = "prevented"
	}
	NavigationEventsTotal.WithLabelValues(event, outcome).Inc()
}
