// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package configform implements the fine-profiling configuration form: it
// loads the record, tracks unsaved edits against the last saved snapshot,
// derives the store-threshold override fields and saves with
// optimistic-concurrency conflict handling.
package configform

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/informant/internal/fineprofiling"
	"github.com/ManuGH/informant/internal/httperrors"
	xglog "github.com/ManuGH/informant/internal/log"
	"github.com/ManuGH/informant/internal/metrics"
	"github.com/ManuGH/informant/internal/navigation"
	"github.com/ManuGH/informant/internal/telemetry"
)

// Backend is the read/write pair the form persists through.
type Backend interface {
	ReadSection(ctx context.Context) (fineprofiling.Section, error)
	WriteConfig(ctx context.Context, cfg fineprofiling.Config) (string, error)
}

// Controller owns one form instance. It is safe for concurrent use; network
// calls run without holding the lock.
type Controller struct {
	backend    Backend
	classifier httperrors.Classifier
	logger     zerolog.Logger
	tracer     trace.Tracer

	mu       sync.Mutex
	state    State
	loaded   bool
	config   fineprofiling.Config
	snapshot *fineprofiling.Config
	general  int
	edit     fineprofiling.EditState
	lastErr  *httperrors.Error
}

// New creates an unloaded controller. A nil classifier selects
// httperrors.Default.
func New(backend Backend, classifier httperrors.Classifier) *Controller {
	if classifier == nil {
		classifier = httperrors.Default
	}
	return &Controller{
		backend:    backend,
		classifier: classifier,
		logger:     xglog.WithComponent("configform"),
		tracer:     telemetry.Tracer("github.com/ManuGH/informant/internal/configform"),
		state:      StateUnloaded,
	}
}

// setStateLocked must be called with c.mu held.
func (c *Controller) setStateLocked(next State) {
	if c.state == next {
		return
	}
	c.logger.Debug().
		Str(xglog.FieldOldState, c.state.String()).
		Str(xglog.FieldNewState, next.String()).
		Msg("form state transition")
	c.state = next
}

// Load fetches the config and the general threshold. Calling it again after a
// successful load is an explicit reload and discards local edits.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateLoading || c.state == StateSaving {
		c.mu.Unlock()
		return ErrBusy
	}
	c.setStateLocked(StateLoading)
	c.mu.Unlock()

	ctx, span := c.tracer.Start(ctx, "configform.Load")
	defer span.End()
	logger := xglog.WithContext(ctx, c.logger)

	sec, err := c.backend.ReadSection(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		classified := classify(c.classifier, err)
		c.lastErr = classified
		if c.loaded {
			// A failed reload keeps the previously loaded record on screen.
			c.setStateLocked(StateLoaded)
		} else {
			c.setStateLocked(StateLoadFailed)
		}
		metrics.IncFormLoad(metrics.ResultError)
		span.SetStatus(codes.Error, classified.Headline)
		span.SetAttributes(telemetry.ErrorAttributes("load")...)
		logger.Warn().Err(err).
			Str(xglog.FieldEvent, "form.load_failed").
			Int(xglog.FieldStatus, classified.Status).
			Msg("failed to load fine profiling config")
		return &LoadError{HTTP: classified, Err: err}
	}

	c.config = fineprofiling.Clone(sec.Config)
	snap := fineprofiling.Clone(sec.Config)
	c.snapshot = &snap
	c.general = sec.GeneralStoreThresholdMillis
	c.edit = fineprofiling.EditStateFrom(c.config.StoreThresholdMillis)
	c.lastErr = nil
	c.loaded = true
	c.setStateLocked(StateLoaded)

	metrics.IncFormLoad(metrics.ResultSuccess)
	span.SetAttributes(telemetry.ConfigAttributes(c.config)...)
	logger.Info().
		Str(xglog.FieldEvent, "form.load_success").
		Str(xglog.FieldVersion, c.config.Version).
		Msg("fine profiling config loaded")
	return nil
}

// editableLocked returns nil when user edits are accepted. Edits are allowed
// while a save is pending; a pending reload would discard them.
func (c *Controller) editableLocked() error {
	switch {
	case !c.loaded:
		return ErrNotLoaded
	case c.state == StateLoading:
		return ErrBusy
	}
	return nil
}

// SetOverrideEnabled toggles the store-threshold override.
func (c *Controller) SetOverrideEnabled(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	next := c.edit.Clone()
	next.OverrideEnabled = enabled
	c.projectLocked(next)
	return nil
}

// SetOverrideValue sets the override input; nil means the field was cleared.
func (c *Controller) SetOverrideValue(millis *int) error {
	if millis != nil && *millis < 0 {
		return ErrInvalidOverride
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	next := c.edit.Clone()
	next.OverrideValueMillis = nil
	if millis != nil {
		v := *millis
		next.OverrideValueMillis = &v
	}
	c.projectLocked(next)
	return nil
}

// projectLocked applies an edit-state change and re-projects it onto
// StoreThresholdMillis. Unchanged edit state is not re-projected.
func (c *Controller) projectLocked(next fineprofiling.EditState) {
	if fineprofiling.EqualEditState(c.edit, next) {
		return
	}
	projected, threshold := next.Project(c.general)
	c.edit = projected
	c.config.StoreThresholdMillis = threshold
}

// Edit applies fn to the remaining settings. StoreThresholdMillis and Version
// are owned by the override projection and the save handler; changes fn makes
// to them are discarded.
func (c *Controller) Edit(fn func(*fineprofiling.Config)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	next := fineprofiling.Clone(c.config)
	fn(&next)
	next.StoreThresholdMillis = c.config.StoreThresholdMillis
	next.Version = c.config.Version
	c.config = next
	return nil
}

// HasChanges reports whether the config differs from the last saved snapshot.
func (c *Controller) HasChanges() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot != nil && !fineprofiling.Equal(c.config, *c.snapshot)
}

// Save submits the whole config. On success it returns SavedMessage; the new
// version is adopted and the snapshot advances to the submitted record. On
// failure the config and snapshot are left untouched and a *SaveError is
// returned. There is no automatic retry.
func (c *Controller) Save(ctx context.Context) (string, error) {
	c.mu.Lock()
	switch {
	case c.state == StateSaving:
		c.mu.Unlock()
		metrics.IncFormSave(metrics.ResultRejected)
		return "", ErrSaveInProgress
	case c.loaded && c.state == StateLoading:
		c.mu.Unlock()
		return "", ErrBusy
	case c.state != StateLoaded:
		c.mu.Unlock()
		return "", ErrNotLoaded
	}
	c.setStateLocked(StateSaving)
	submitted := fineprofiling.Clone(c.config)
	c.mu.Unlock()

	ctx, span := c.tracer.Start(ctx, "configform.Save",
		trace.WithAttributes(telemetry.ConfigAttributes(submitted)...))
	defer span.End()
	logger := xglog.WithContext(ctx, c.logger)

	version, err := c.backend.WriteConfig(ctx, submitted)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStateLocked(StateLoaded)

	if err == nil {
		c.config.Version = version
		saved := submitted
		saved.Version = version
		c.snapshot = &saved
		c.lastErr = nil

		metrics.IncFormSave(metrics.ResultSuccess)
		span.SetAttributes(attribute.String(telemetry.ConfigVersionKey, version))
		logger.Info().
			Str(xglog.FieldEvent, "form.save_success").
			Str(xglog.FieldVersion, version).
			Msg("fine profiling config saved")
		return SavedMessage, nil
	}

	if isConflict(err) {
		metrics.IncFormSave(metrics.ResultConflict)
		span.SetStatus(codes.Error, "conflict")
		span.SetAttributes(telemetry.ErrorAttributes("conflict")...)
		logger.Info().
			Str(xglog.FieldEvent, "form.save_conflict").
			Str(xglog.FieldVersion, submitted.Version).
			Msg("fine profiling config changed concurrently")
		return "", &SaveError{Message: ConflictMessage, Conflict: true, Err: err}
	}

	classified := classify(c.classifier, err)
	c.lastErr = classified
	metrics.IncFormSave(metrics.ResultError)
	span.SetStatus(codes.Error, classified.Headline)
	span.SetAttributes(telemetry.ErrorAttributes("save")...)
	logger.Warn().Err(err).
		Str(xglog.FieldEvent, "form.save_failed").
		Int(xglog.FieldStatus, classified.Status).
		Msg("failed to save fine profiling config")
	return "", &SaveError{Message: classified.Headline, HTTP: classified, Err: err}
}

// RegisterNavigationGuard asks confirmer before navigation away from a form
// with unsaved changes. The returned function removes the guard.
func (c *Controller) RegisterNavigationGuard(bus *navigation.Bus, confirmer navigation.Confirmer) func() {
	return bus.On(navigation.LocationChangeStart, navigation.ConfirmIfHasChanges(c, confirmer))
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Loaded reports whether a load has ever succeeded.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Config returns a copy of the live record.
func (c *Controller) Config() fineprofiling.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fineprofiling.Clone(c.config)
}

// Snapshot returns the last saved record, if any.
func (c *Controller) Snapshot() (fineprofiling.Config, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		return fineprofiling.Config{}, false
	}
	return fineprofiling.Clone(*c.snapshot), true
}

func (c *Controller) EditState() fineprofiling.EditState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.edit.Clone()
}

func (c *Controller) GeneralStoreThresholdMillis() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.general
}

// LastError returns the most recent classified load/save failure, or nil.
func (c *Controller) LastError() *httperrors.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// IsConflict reports whether err is a save rejected because of a concurrent
// update.
func IsConflict(err error) bool {
	return errors.Is(err, ErrSaveConflict)
}
