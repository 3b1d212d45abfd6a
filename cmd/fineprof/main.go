// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command fineprof inspects and edits the fine-profiling configuration of an
// informant backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/informant/internal/backend"
	"github.com/ManuGH/informant/internal/config"
	"github.com/ManuGH/informant/internal/configform"
	xglog "github.com/ManuGH/informant/internal/log"
	"github.com/ManuGH/informant/internal/telemetry"
	"github.com/ManuGH/informant/internal/version"
)

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitUsage    = 2
	exitConflict = 3
)

// cli carries the process streams so commands can be driven from tests.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	c := &cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(c.run(os.Args[1:]))
}

func (c *cli) run(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		c.printUsage()
		if len(args) == 0 {
			return exitUsage
		}
		return exitOK
	}

	switch args[0] {
	case "show":
		return c.runShowCLI(args[1:])
	case "set":
		return c.runSetCLI(args[1:])
	case "edit":
		return c.runEditCLI(args[1:])
	case "version", "--version":
		fmt.Fprintln(c.stdout, version.String())
		return exitOK
	default:
		fmt.Fprintf(c.stderr, "Unknown command: %s\n\n", args[0])
		c.printUsage()
		return exitUsage
	}
}

func (c *cli) printUsage() {
	fmt.Fprintln(c.stderr, "Usage:")
	fmt.Fprintln(c.stderr, "  fineprof show [--config file.yaml] [--url URL] [--format=json|yaml]")
	fmt.Fprintln(c.stderr, "  fineprof set  [--config file.yaml] [--url URL] [--enabled] [--trace N] [--interval MS]")
	fmt.Fprintln(c.stderr, "                [--total S] [--override=on|off] [--threshold MS]")
	fmt.Fprintln(c.stderr, "  fineprof edit [--config file.yaml] [--url URL]")
	fmt.Fprintln(c.stderr, "  fineprof version")
}

// commonFlags are shared by every command that talks to the backend.
type commonFlags struct {
	configPath string
	baseURL    string
	logLevel   string
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "path to config file (YAML)")
	fs.StringVar(&f.baseURL, "url", "", "backend base URL (overrides config)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level (overrides config)")
}

// session is a loaded settings set plus the form controller built from it.
type session struct {
	cfg      config.AppConfig
	form     *configform.Controller
	shutdown func()
}

// open loads settings, configures logging and tracing, and builds an
// unloaded controller. Logs go to stderr so stdout stays machine-readable.
func (c *cli) open(f commonFlags) (*session, error) {
	cfg, err := config.NewLoader(strings.TrimSpace(f.configPath), version.Version).Load()
	if err != nil {
		return nil, err
	}
	if f.baseURL != "" {
		cfg.Client.BaseURL = f.baseURL
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Output:  c.stderr,
		Service: "fineprof",
		Version: cfg.Version,
	})

	tp, err := telemetry.NewProvider(context.Background(), telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "fineprof",
		ServiceVersion: cfg.Version,
		Exporter:       cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	client := backend.New(backend.Options{
		BaseURL:   cfg.Client.BaseURL,
		Timeout:   cfg.Client.Timeout,
		RateLimit: cfg.Client.RateLimit,
		RateBurst: cfg.Client.RateBurst,
		UserAgent: cfg.Client.UserAgent + "/" + version.Version,
	})

	return &session{
		cfg:  cfg,
		form: configform.New(client, nil),
		shutdown: func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger := xglog.WithComponent("fineprof")
				logger.Warn().Err(err).Msg("telemetry shutdown failed")
			}
		},
	}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// reportError prints a form error with its classified detail.
func (c *cli) reportError(err error) int {
	var le *configform.LoadError
	var se *configform.SaveError
	switch {
	case configform.IsConflict(err):
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitConflict
	case errors.As(err, &le) && le.HTTP != nil:
		c.printClassified("Load failed", le.HTTP.Headline, le.HTTP.Detail)
	case errors.As(err, &se) && se.HTTP != nil:
		c.printClassified("Save failed", se.HTTP.Headline, se.HTTP.Detail)
	default:
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
	}
	return exitError
}

func (c *cli) printClassified(prefix, headline, detail string) {
	fmt.Fprintf(c.stderr, "%s: %s\n", prefix, headline)
	if detail != "" {
		fmt.Fprintf(c.stderr, "  %s\n", detail)
	}
}
