// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/render"

	"github.com/ManuGH/informant/internal/fineprofiling"
	"github.com/ManuGH/informant/internal/log"
	"github.com/ManuGH/informant/internal/metrics"
	"github.com/ManuGH/informant/internal/store"
	"github.com/ManuGH/informant/internal/validate"
)

const maxBodyBytes = 64 << 10

func (s *Server) handleReadSection(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.Read(r.Context())
	if err != nil {
		logger := log.WithContext(r.Context(), log.WithComponent("server"))
		logger.Error().Err(err).
			Str(log.FieldBackend, s.store.Backend()).
			Msg("read config failed")
		writeProblem(w, r, http.StatusInternalServerError, ProblemStoreFailure, "Unable to read configuration", "STORE_READ_FAILED", err.Error(), nil)
		return
	}
	render.JSON(w, r, fineprofiling.Section{
		Config:                      cfg,
		GeneralStoreThresholdMillis: s.cfg.GeneralStoreThresholdMillis,
	})
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	logger := log.WithContext(r.Context(), log.WithComponent("server")).With().
		Str(log.FieldBackend, s.store.Backend()).
		Logger()
	backend := s.store.Backend()

	var cfg fineprofiling.Config
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		metrics.IncConfigWrite(backend, metrics.ResultRejected)
		writeProblem(w, r, http.StatusBadRequest, ProblemInvalidRequest, "Invalid request", "INVALID_BODY", err.Error(), nil)
		return
	}

	if err := fineprofiling.Validate(cfg); err != nil {
		metrics.IncConfigWrite(backend, metrics.ResultRejected)
		var extra map[string]any
		var ve validate.ValidationError
		if errors.As(err, &ve) {
			extra = map[string]any{"fields": ve.Fields()}
		}
		writeProblem(w, r, http.StatusBadRequest, ProblemInvalidConfig, "Invalid configuration", "INVALID_CONFIG", err.Error(), extra)
		return
	}

	saved, err := s.store.Write(r.Context(), cfg)
	switch {
	case errors.Is(err, store.ErrVersionMismatch):
		metrics.IncConfigWrite(backend, metrics.ResultConflict)
		logger.Info().
			Str(log.FieldEvent, "config.write_conflict").
			Str(log.FieldVersion, cfg.Version).
			Msg("rejected write based on stale version")
		writeProblem(w, r, http.StatusPreconditionFailed, ProblemVersionConflict, "Configuration was modified", "VERSION_CONFLICT",
			"The configuration changed since it was read. Reload and try again.", nil)
		return
	case err != nil:
		metrics.IncConfigWrite(backend, metrics.ResultError)
		logger.Error().Err(err).Msg("write config failed")
		writeProblem(w, r, http.StatusInternalServerError, ProblemStoreFailure, "Unable to save configuration", "STORE_WRITE_FAILED", err.Error(), nil)
		return
	}

	metrics.IncConfigWrite(backend, metrics.ResultSuccess)
	logger.Info().
		Str(log.FieldEvent, "config.write_success").
		Str(log.FieldVersion, saved.Version).
		Bool("enabled", saved.Enabled).
		Int("store_threshold_ms", saved.StoreThresholdMillis).
		Msg("config saved")
	render.JSON(w, r, saved.Version)
}
