// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package configform

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/informant/internal/backend"
	"github.com/ManuGH/informant/internal/fineprofiling"
	"github.com/ManuGH/informant/internal/httperrors"
	"github.com/ManuGH/informant/internal/navigation"
)

// fakeBackend serves a fixed section and records writes.
type fakeBackend struct {
	mu       sync.Mutex
	section  fineprofiling.Section
	readErr  error
	writeErr error
	version  string
	written  []fineprofiling.Config
	// gate, when non-nil, blocks WriteConfig until closed.
	gate    chan struct{}
	entered chan struct{}
	// readGate, when non-nil, blocks ReadSection until closed.
	readGate    chan struct{}
	readEntered chan struct{}
}

func (f *fakeBackend) ReadSection(context.Context) (fineprofiling.Section, error) {
	f.mu.Lock()
	gate, entered := f.readGate, f.readEntered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return fineprofiling.Section{}, f.readErr
	}
	return f.section, nil
}

func (f *fakeBackend) WriteConfig(_ context.Context, cfg fineprofiling.Config) (string, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, cfg)
	if f.writeErr != nil {
		return "", f.writeErr
	}
	return f.version, nil
}

func scenarioBackend() *fakeBackend {
	cfg := fineprofiling.Defaults()
	cfg.StoreThresholdMillis = -1
	cfg.Version = "v1"
	return &fakeBackend{
		section: fineprofiling.Section{Config: cfg, GeneralStoreThresholdMillis: 1000},
		version: "v2",
	}
}

func loaded(t *testing.T, fb *fakeBackend) *Controller {
	t.Helper()
	c := New(fb, nil)
	require.NoError(t, c.Load(context.Background()))
	return c
}

func intPtr(v int) *int { return &v }

func TestLoad_InitialisesSnapshotAndEditState(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		want      fineprofiling.EditState
	}{
		{name: "not overridden", threshold: -1, want: fineprofiling.EditState{}},
		{name: "overridden", threshold: 250, want: fineprofiling.EditState{OverrideEnabled: true, OverrideValueMillis: intPtr(250)}},
		{name: "overridden with zero", threshold: 0, want: fineprofiling.EditState{OverrideEnabled: true, OverrideValueMillis: intPtr(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := scenarioBackend()
			fb.section.Config.StoreThresholdMillis = tt.threshold
			c := loaded(t, fb)

			assert.Equal(t, StateLoaded, c.State())
			assert.True(t, c.Loaded())
			assert.False(t, c.HasChanges())
			if diff := cmp.Diff(tt.want, c.EditState()); diff != "" {
				t.Errorf("edit state mismatch (-want +got):\n%s", diff)
			}
			snap, ok := c.Snapshot()
			require.True(t, ok)
			assert.Equal(t, c.Config(), snap)
			assert.Equal(t, 1000, c.GeneralStoreThresholdMillis())
		})
	}
}

func TestLoad_FailureIsClassified(t *testing.T) {
	fb := scenarioBackend()
	fb.readErr = &backend.HTTPError{Sentinel: backend.ErrUpstream, Operation: backend.OpRead, Status: 500, Body: []byte(`{"message":"db down"}`)}
	c := New(fb, nil)

	err := c.Load(context.Background())
	require.Error(t, err)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "db down", le.HTTP.Headline)
	assert.True(t, errors.Is(err, backend.ErrUpstream))

	assert.Equal(t, StateLoadFailed, c.State())
	assert.False(t, c.Loaded())
	assert.False(t, c.HasChanges())
	require.NotNil(t, c.LastError())
	assert.Equal(t, 500, c.LastError().Status)

	_, ok := c.Snapshot()
	assert.False(t, ok)
	assert.ErrorIs(t, c.SetOverrideEnabled(true), ErrNotLoaded)
	_, err = c.Save(context.Background())
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestLoad_TransportFailureHeadline(t *testing.T) {
	fb := scenarioBackend()
	fb.readErr = &backend.HTTPError{Sentinel: backend.ErrUnavailable, Operation: backend.OpRead, Err: errors.New("connection refused")}
	c := New(fb, nil)
	require.Error(t, c.Load(context.Background()))
	assert.Equal(t, httperrors.HeadlineUnreachable, c.LastError().Headline)
}

func TestLoad_RetryAfterFailure(t *testing.T) {
	fb := scenarioBackend()
	fb.readErr = errors.New("boom")
	c := New(fb, nil)
	require.Error(t, c.Load(context.Background()))

	fb.mu.Lock()
	fb.readErr = nil
	fb.mu.Unlock()
	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, StateLoaded, c.State())
	assert.Nil(t, c.LastError())
}

func TestReload_FailureKeepsLoadedRecord(t *testing.T) {
	fb := scenarioBackend()
	c := loaded(t, fb)
	require.NoError(t, c.SetOverrideEnabled(true))

	fb.mu.Lock()
	fb.readErr = errors.New("boom")
	fb.mu.Unlock()
	require.Error(t, c.Load(context.Background()))

	assert.Equal(t, StateLoaded, c.State())
	assert.Equal(t, 1000, c.Config().StoreThresholdMillis)
	assert.True(t, c.HasChanges())
}

func TestToggleOverride_FallsBackToGeneralThreshold(t *testing.T) {
	c := loaded(t, scenarioBackend())

	require.NoError(t, c.SetOverrideEnabled(true))
	es := c.EditState()
	assert.True(t, es.OverrideEnabled)
	require.NotNil(t, es.OverrideValueMillis)
	assert.Equal(t, 1000, *es.OverrideValueMillis)
	assert.Equal(t, 1000, c.Config().StoreThresholdMillis)
	assert.True(t, c.HasChanges())

	require.NoError(t, c.SetOverrideEnabled(false))
	assert.Equal(t, fineprofiling.EditState{}, c.EditState())
	assert.Equal(t, -1, c.Config().StoreThresholdMillis)
	assert.False(t, c.HasChanges())
}

func TestSetOverrideValue(t *testing.T) {
	c := loaded(t, scenarioBackend())

	// Ignored while the override is off.
	require.NoError(t, c.SetOverrideValue(intPtr(20)))
	assert.Nil(t, c.EditState().OverrideValueMillis)
	assert.Equal(t, -1, c.Config().StoreThresholdMillis)

	require.NoError(t, c.SetOverrideEnabled(true))
	require.NoError(t, c.SetOverrideValue(intPtr(20)))
	assert.Equal(t, 20, c.Config().StoreThresholdMillis)

	// Clearing the input while enabled re-seeds from the general threshold.
	require.NoError(t, c.SetOverrideValue(nil))
	assert.Equal(t, 1000, *c.EditState().OverrideValueMillis)
	assert.Equal(t, 1000, c.Config().StoreThresholdMillis)

	assert.ErrorIs(t, c.SetOverrideValue(intPtr(-1)), ErrInvalidOverride)
	assert.Equal(t, 1000, c.Config().StoreThresholdMillis)
}

func TestProjectionInvariant_RandomEdits(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	c := loaded(t, scenarioBackend())

	for i := 0; i < 500; i++ {
		switch rng.Intn(3) {
		case 0:
			require.NoError(t, c.SetOverrideEnabled(rng.Intn(2) == 0))
		case 1:
			require.NoError(t, c.SetOverrideValue(intPtr(rng.Intn(5000))))
		case 2:
			require.NoError(t, c.SetOverrideValue(nil))
		}
		es := c.EditState()
		cfg := c.Config()
		assert.Equal(t, !es.OverrideEnabled, cfg.StoreThresholdMillis == -1, "step %d", i)
		if es.OverrideEnabled {
			require.NotNil(t, es.OverrideValueMillis, "step %d", i)
			assert.Equal(t, *es.OverrideValueMillis, cfg.StoreThresholdMillis, "step %d", i)
		} else {
			assert.Nil(t, es.OverrideValueMillis, "step %d", i)
		}
	}
}

func TestEdit_ProtectsOwnedFields(t *testing.T) {
	c := loaded(t, scenarioBackend())
	require.NoError(t, c.Edit(func(cfg *fineprofiling.Config) {
		cfg.Enabled = true
		cfg.TracePercentage = 12.5
		cfg.StoreThresholdMillis = 77
		cfg.Version = "forged"
	}))
	cfg := c.Config()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 12.5, cfg.TracePercentage)
	assert.Equal(t, -1, cfg.StoreThresholdMillis)
	assert.Equal(t, "v1", cfg.Version)
	assert.True(t, c.HasChanges())
}

func TestSave_ConcreteScenario(t *testing.T) {
	fb := scenarioBackend()
	c := loaded(t, fb)

	assert.Equal(t, fineprofiling.EditState{}, c.EditState())
	assert.Equal(t, "", c.EditState().ValueString())

	require.NoError(t, c.SetOverrideEnabled(true))
	assert.Equal(t, "1000", c.EditState().ValueString())
	assert.Equal(t, 1000, c.Config().StoreThresholdMillis)
	assert.True(t, c.HasChanges())

	msg, err := c.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SavedMessage, msg)

	snap, ok := c.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "v2", snap.Version)
	assert.Equal(t, "v2", c.Config().Version)
	assert.Equal(t, c.Config(), snap)
	assert.False(t, c.HasChanges())

	require.Len(t, fb.written, 1)
	assert.Equal(t, "v1", fb.written[0].Version)
	assert.Equal(t, 1000, fb.written[0].StoreThresholdMillis)
}

func TestSave_ConflictLeavesStateUntouched(t *testing.T) {
	fb := scenarioBackend()
	fb.writeErr = &backend.HTTPError{Sentinel: backend.ErrConflict, Operation: backend.OpWrite, Status: 412}
	c := loaded(t, fb)
	require.NoError(t, c.SetOverrideEnabled(true))

	beforeCfg := c.Config()
	beforeSnap, _ := c.Snapshot()

	msg, err := c.Save(context.Background())
	require.Error(t, err)
	assert.Empty(t, msg)
	assert.Equal(t, "Someone else has updated this configuration, please reload and try again", err.Error())
	assert.True(t, IsConflict(err))
	assert.True(t, errors.Is(err, backend.ErrConflict))

	var se *SaveError
	require.True(t, errors.As(err, &se))
	assert.Nil(t, se.HTTP)

	afterSnap, _ := c.Snapshot()
	assert.Equal(t, beforeCfg, c.Config())
	assert.Equal(t, beforeSnap, afterSnap)
	assert.True(t, c.HasChanges())
	assert.Equal(t, StateLoaded, c.State())
	assert.Nil(t, c.LastError())
}

func TestSave_OtherErrorIsClassified(t *testing.T) {
	fb := scenarioBackend()
	fb.writeErr = &backend.HTTPError{
		Sentinel: backend.ErrUpstream, Operation: backend.OpWrite, Status: 400,
		Body: []byte(`{"type":"config/invalid","title":"Invalid Config","detail":"intervalMillis: must be positive"}`),
	}
	c := loaded(t, fb)
	require.NoError(t, c.Edit(func(cfg *fineprofiling.Config) { cfg.IntervalMillis = 0 }))
	before := c.Config()

	_, err := c.Save(context.Background())
	require.Error(t, err)
	assert.False(t, IsConflict(err))
	assert.Equal(t, "Invalid Config", err.Error())
	require.NotNil(t, c.LastError())
	assert.Equal(t, "intervalMillis: must be positive", c.LastError().Detail)
	assert.Equal(t, before, c.Config())
	assert.True(t, c.HasChanges())
}

func TestSave_LocalFailureIsNotReportedAsUnreachable(t *testing.T) {
	section := scenarioBackend().section
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(section)
	}))
	defer srv.Close()

	c := New(backend.New(backend.Options{BaseURL: srv.URL, Timeout: 5 * time.Second}), nil)
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Edit(func(cfg *fineprofiling.Config) { cfg.TracePercentage = math.NaN() }))

	_, err := c.Save(context.Background())
	require.Error(t, err)
	assert.False(t, IsConflict(err))
	assert.Equal(t, httperrors.HeadlineRequestFailed, err.Error())
	require.NotNil(t, c.LastError())
	assert.NotEqual(t, httperrors.HeadlineUnreachable, c.LastError().Headline)
	assert.Contains(t, c.LastError().Detail, "encode config")
	assert.Equal(t, StateLoaded, c.State())
}

func TestSave_SecondSaveWhileInFlight(t *testing.T) {
	fb := scenarioBackend()
	fb.gate = make(chan struct{})
	fb.entered = make(chan struct{}, 1)
	c := loaded(t, fb)
	require.NoError(t, c.SetOverrideEnabled(true))

	done := make(chan error, 1)
	go func() {
		_, err := c.Save(context.Background())
		done <- err
	}()
	select {
	case <-fb.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first save never reached the backend")
	}
	assert.Equal(t, StateSaving, c.State())

	_, err := c.Save(context.Background())
	assert.ErrorIs(t, err, ErrSaveInProgress)
	assert.ErrorIs(t, c.Load(context.Background()), ErrBusy)

	// Edits made while the save is pending stay dirty afterwards.
	require.NoError(t, c.SetOverrideValue(intPtr(5)))

	close(fb.gate)
	require.NoError(t, <-done)
	assert.Equal(t, StateLoaded, c.State())

	snap, _ := c.Snapshot()
	assert.Equal(t, 1000, snap.StoreThresholdMillis)
	assert.Equal(t, "v2", snap.Version)
	assert.Equal(t, 5, c.Config().StoreThresholdMillis)
	assert.Equal(t, "v2", c.Config().Version)
	assert.True(t, c.HasChanges())
}

func TestReload_EditsAndSaveAreBusy(t *testing.T) {
	fb := scenarioBackend()
	c := loaded(t, fb)

	fb.mu.Lock()
	fb.readGate = make(chan struct{})
	fb.readEntered = make(chan struct{}, 1)
	fb.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- c.Load(context.Background()) }()
	select {
	case <-fb.readEntered:
	case <-time.After(2 * time.Second):
		t.Fatal("reload never reached the backend")
	}
	assert.Equal(t, StateLoading, c.State())

	_, err := c.Save(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, c.SetOverrideEnabled(true), ErrBusy)
	assert.ErrorIs(t, c.SetOverrideValue(intPtr(5)), ErrBusy)
	assert.ErrorIs(t, c.Edit(func(cfg *fineprofiling.Config) { cfg.Enabled = true }), ErrBusy)

	close(fb.readGate)
	require.NoError(t, <-done)
	assert.Equal(t, StateLoaded, c.State())
	assert.False(t, c.HasChanges())
}

func TestNavigationGuard(t *testing.T) {
	c := loaded(t, scenarioBackend())
	bus := navigation.NewBus()
	prompts := 0
	off := c.RegisterNavigationGuard(bus, navigation.ConfirmFunc(func(string) bool {
		prompts++
		return false
	}))
	defer off()

	assert.True(t, bus.Navigate("fine-profiling", "general"))
	assert.Equal(t, 0, prompts)

	require.NoError(t, c.SetOverrideEnabled(true))
	assert.False(t, bus.Navigate("fine-profiling", "general"))
	assert.Equal(t, 1, prompts)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "saving", StateSaving.String())
	assert.Equal(t, "unknown", State(42).String())
}
