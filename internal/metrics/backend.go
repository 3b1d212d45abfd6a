// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BackendRequestsTotal counts client calls to the config backend.
	BackendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "informant_backend_requests_total",
		Help: "Config backend requests by operation and HTTP status (0 = transport failure)",
	}, []string{"operation", "status"})

	// BackendRequestDuration tracks round-trip latency of backend calls.
	BackendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "informant_backend_request_duration_seconds",
		Help:    "Config backend request latency",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"operation"})
)

// ObserveBackendRequest records one backend call.
func ObserveBackendRequest(operation string, status int, d time.Duration) {
	BackendRequestsTotal.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	BackendRequestDuration.WithLabelValues(operation).Observe(d.Seconds())
}
