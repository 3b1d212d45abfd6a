// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package server is the reference backend for the fine-profiling config
// endpoints. It serves the section read and the version-checked write.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/informant/internal/health"
	"github.com/ManuGH/informant/internal/log"
	"github.com/ManuGH/informant/internal/store"
)

// Routes.
const (
	SectionPath = "/backend/config/fine-profiling-section"
	WritePath   = "/backend/config/fine-profiling"
)

// Config configures a Server.
type Config struct {
	// GeneralStoreThresholdMillis is returned with every section read.
	GeneralStoreThresholdMillis int
	// AllowedOrigins enables CORS for browser front ends; empty disables it.
	AllowedOrigins []string
	// WriteRateLimit is writes per minute per client IP; 0 disables limiting.
	WriteRateLimit int
	ServiceName    string
	Version        string
}

// Server serves the config API over a Store.
type Server struct {
	cfg    Config
	store  store.Store
	router chi.Router
}

// New builds the server and its routes. It fails only if the embedded API
// description is broken.
func New(cfg Config, st store.Store) (*Server, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "informant"
	}
	_, oaRouter, err := loadOpenAPI()
	if err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, store: st}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", HeaderRequestID, "traceparent", "tracestate"},
			ExposedHeaders: []string{HeaderRequestID},
			MaxAge:         300,
		}))
	}

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewCheckerFunc("store", func(ctx context.Context) error {
		_, err := st.Read(ctx)
		return err
	}))
	r.Get("/healthz", hm.ServeHealth)
	r.Get("/readyz", hm.ServeReady)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(openapiSpec)
	})

	r.Group(func(r chi.Router) {
		r.Use(validateRequests(oaRouter))
		r.Get(SectionPath, s.handleReadSection)
		r.Group(func(r chi.Router) {
			if cfg.WriteRateLimit > 0 {
				r.Use(writeRateLimit(cfg.WriteRateLimit))
			}
			r.Post(WritePath, s.handleWrite)
		})
	})

	s.router = r
	return s, nil
}

// Handler returns the instrumented root handler.
func (s *Server) Handler() http.Handler {
	return tracing(s.cfg.ServiceName)(s.router)
}

// ListenAndServe serves on addr until ctx is done, then shuts down within
// shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	logger := log.WithComponent("server")

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Str("store_backend", s.store.Backend()).Msg("config API listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info().Msg("shutting down config API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
