// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Form outcome labels.
const (
	ResultSuccess  = "success"
	ResultConflict = "conflict"
	ResultError    = "error"
	ResultRejected = "rejected"
)

var (
	FormLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "informant_form_loads_total",
		Help: "Config form load attempts by result",
	}, []string{"result"})

	FormSavesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "informant_form_saves_total",
		Help: "Config form save attempts by result (success|conflict|error|rejected)",
	}, []string{"result"})
)

// IncFormLoad records a load outcome.
func IncFormLoad(result string) {
	FormLoadsTotal.WithLabelValues(result).Inc()
}

// IncFormSave records a save outcome.
func IncFormSave(result string) {
	FormSavesTotal.WithLabelValues(result).Inc()
}
