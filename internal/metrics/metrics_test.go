// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestIncFormSave(t *testing.T) {
	before := testutil.ToFloat64(FormSavesTotal.WithLabelValues(ResultConflict))
	IncFormSave(ResultConflict)
	assert.Equal(t, before+1, testutil.ToFloat64(FormSavesTotal.WithLabelValues(ResultConflict)))
}

func TestObserveBackendRequest(t *testing.T) {
	before := testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("write", "412"))
	ObserveBackendRequest("write", 412, 10*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("write", "412")))
}

func TestIncNavigation(t *testing.T) {
	before := testutil.ToFloat64(NavigationEventsTotal.WithLabelValues("unknown", "prevented"))
	IncNavigation("", true)
	assert.Equal(t, before+1, testutil.ToFloat64(NavigationEventsTotal.WithLabelValues("unknown", "prevented")))
}
