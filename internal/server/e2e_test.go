// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package server_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/informant/internal/backend"
	"github.com/ManuGH/informant/internal/configform"
	"github.com/ManuGH/informant/internal/fineprofiling"
	"github.com/ManuGH/informant/internal/server"
	"github.com/ManuGH/informant/internal/store"
)

func startServer(t *testing.T, st store.Store) *backend.Client {
	t.Helper()
	s, err := server.New(server.Config{GeneralStoreThresholdMillis: 1000}, st)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return backend.New(backend.Options{BaseURL: ts.URL})
}

func intPtr(i int) *int { return &i }

func TestFormAgainstServer_SaveThenConflict(t *testing.T) {
	ctx := context.Background()
	st, err := store.OpenSQLiteStore(filepath.Join(t.TempDir(), "config.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	client := startServer(t, st)

	alice := configform.New(client, nil)
	bob := configform.New(client, nil)
	require.NoError(t, alice.Load(ctx))
	require.NoError(t, bob.Load(ctx))
	assert.False(t, alice.HasChanges())
	assert.Equal(t, 1000, alice.GeneralStoreThresholdMillis())

	// Toggling the override on adopts the general threshold.
	require.NoError(t, alice.SetOverrideEnabled(true))
	assert.Equal(t, 1000, alice.Config().StoreThresholdMillis)
	assert.True(t, alice.HasChanges())

	msg, err := alice.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, configform.SavedMessage, msg)
	assert.False(t, alice.HasChanges())

	stored, err := st.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored, alice.Config())

	// Bob still holds the old version.
	require.NoError(t, bob.SetOverrideEnabled(true))
	require.NoError(t, bob.SetOverrideValue(intPtr(250)))
	before := bob.Config()
	_, err = bob.Save(ctx)
	require.ErrorIs(t, err, configform.ErrSaveConflict)
	assert.Equal(t, configform.ConflictMessage, err.Error())
	assert.Equal(t, before, bob.Config())
	assert.True(t, bob.HasChanges())

	// Reload discards bob's edits and picks up alice's save.
	require.NoError(t, bob.Load(ctx))
	assert.Equal(t, stored, bob.Config())
	assert.Equal(t, fineprofiling.EditState{OverrideEnabled: true, OverrideValueMillis: intPtr(1000)}, bob.EditState())
}

func TestFormAgainstServer_InvalidSaveIsClassified(t *testing.T) {
	ctx := context.Background()
	client := startServer(t, store.NewMemoryStore())

	form := configform.New(client, nil)
	require.NoError(t, form.Load(ctx))
	require.NoError(t, form.Edit(func(c *fineprofiling.Config) { c.TracePercentage = 500 }))

	_, err := form.Save(ctx)
	require.Error(t, err)
	assert.False(t, configform.IsConflict(err))

	var se *configform.SaveError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Invalid configuration", se.Message)
	require.NotNil(t, form.LastError())
	assert.Equal(t, 400, form.LastError().Status)
	assert.True(t, form.HasChanges())
}

func TestFormAgainstServer_Unreachable(t *testing.T) {
	s, err := server.New(server.Config{}, store.NewMemoryStore())
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	url := ts.URL
	ts.Close()

	form := configform.New(backend.New(backend.Options{BaseURL: url}), nil)
	err = form.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, configform.StateLoadFailed, form.State())
	require.NotNil(t, form.LastError())
	assert.Equal(t, "Unable to connect to server", form.LastError().Headline)
}
