// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command fineprof-server runs the reference fine-profiling config backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/informant/internal/config"
	"github.com/ManuGH/informant/internal/fineprofiling"
	xglog "github.com/ManuGH/informant/internal/log"
	"github.com/ManuGH/informant/internal/server"
	"github.com/ManuGH/informant/internal/store"
	"github.com/ManuGH/informant/internal/telemetry"
	"github.com/ManuGH/informant/internal/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "config" {
		os.Exit(runConfigCLI(os.Args[2:]))
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Configure logger with safe defaults until config is loaded
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "fineprof-server",
		Version: version.Version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: "fineprof-server",
		Version: cfg.Version,
	})
	logger = xglog.WithComponent("daemon")

	if err := run(ctx, cfg); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}

// run wires telemetry, the store and the HTTP server and blocks until ctx is
// cancelled or a component fails.
func run(ctx context.Context, cfg config.AppConfig) error {
	logger := xglog.WithComponent("daemon")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "fineprof-server",
		ServiceVersion: cfg.Version,
		Exporter:       cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	st, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn().Err(err).Msg("store close failed")
		}
	}()
	logger.Info().
		Str(xglog.FieldBackend, st.Backend()).
		Str(xglog.FieldPath, cfg.Store.Path).
		Msg("config store opened")

	srv, err := server.New(server.Config{
		GeneralStoreThresholdMillis: cfg.Server.GeneralStoreThresholdMillis,
		AllowedOrigins:              cfg.Server.AllowedOrigins,
		WriteRateLimit:              cfg.Server.WriteRateLimit,
		ServiceName:                 "fineprof-server",
		Version:                     cfg.Version,
	}, st)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, cfg.Server.ListenAddr, cfg.Server.ShutdownTimeout)
	})
	if fs, ok := st.(*store.FileStore); ok {
		logger.Info().Str("path", fs.Path()).Msg("watching config file for external edits")
		g.Go(func() error {
			return fs.Watch(gctx, func(c fineprofiling.Config) {
				logger.Info().
					Str(xglog.FieldVersion, c.Version).
					Msg("clients holding older versions will get 412 on save")
			})
		})
	}
	return g.Wait()
}
