// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/informant/internal/config"
	"github.com/ManuGH/informant/internal/version"
)

func runConfigCLI(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage()
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:])
	case "dump":
		return runConfigDump(args[1:])
	case "init":
		return runConfigInit(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage()
		return 2
	}
}

func printConfigUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  fineprof-server config validate --file|-f config.yaml")
	fmt.Fprintln(os.Stderr, "  fineprof-server config dump [--file|-f config.yaml] [--format=yaml|json]")
	fmt.Fprintln(os.Stderr, "  fineprof-server config init --file|-f config.yaml [--store=memory|file|sqlite|badger|redis] [--store-path PATH]")
}

func runConfigValidate(args []string) int {
	fs := flag.NewFlagSet("fineprof-server config validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	configPath := strings.TrimSpace(file)
	if configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		return 2
	}

	if _, err := config.NewLoader(configPath, version.Version).Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error in %s:\n  %v\n", configPath, err)
		return 1
	}

	fmt.Printf("%s is valid\n", configPath)
	return 0
}

// runConfigDump prints the effective configuration (defaults + file + env).
func runConfigDump(args []string) int {
	fs := flag.NewFlagSet("fineprof-server config dump", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var file string
	var format string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	fs.StringVar(&format, "format", "yaml", "output format: yaml or json")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	configPath := strings.TrimSpace(file)
	cfg, err := config.NewLoader(configPath, version.Version).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(effectiveView(cfg)); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode YAML: %v\n", err)
			return 1
		}
		_ = enc.Close()
		return 0
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(effectiveView(cfg)); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unsupported format: %s (use yaml or json)\n", format)
		return 2
	}
}

// effectiveView renders every setting, defaults included, in file form.
func effectiveView(cfg config.AppConfig) config.FileConfig {
	f := config.ToFileConfig(cfg)
	def := config.Defaults()
	if f.LogLevel == "" {
		f.LogLevel = cfg.LogLevel
	}
	if f.Client.BaseURL == "" {
		f.Client.BaseURL = def.Client.BaseURL
	}
	if f.Client.Timeout == "" {
		f.Client.Timeout = cfg.Client.Timeout.String()
	}
	if f.Server.ListenAddr == "" {
		f.Server.ListenAddr = cfg.Server.ListenAddr
	}
	if f.Server.GeneralStoreThresholdMillis == nil {
		v := cfg.Server.GeneralStoreThresholdMillis
		f.Server.GeneralStoreThresholdMillis = &v
	}
	if f.Server.WriteRateLimit == nil {
		v := cfg.Server.WriteRateLimit
		f.Server.WriteRateLimit = &v
	}
	if f.Store.Backend == "" {
		f.Store.Backend = cfg.Store.Backend
	}
	return f
}

// runConfigInit writes a starter config file.
func runConfigInit(args []string) int {
	fs := flag.NewFlagSet("fineprof-server config init", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var file, backend, storePath string
	var force bool
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	fs.StringVar(&backend, "store", config.StoreMemory, "store backend")
	fs.StringVar(&storePath, "store-path", "", "store path (file, sqlite, badger)")
	fs.BoolVar(&force, "force", false, "overwrite an existing file")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	configPath := strings.TrimSpace(file)
	if configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		return 2
	}
	if _, err := os.Stat(configPath); err == nil && !force {
		fmt.Fprintf(os.Stderr, "Error: %s exists (use --force to overwrite)\n", configPath)
		return 1
	}

	cfg := config.Defaults()
	cfg.Store.Backend = backend
	cfg.Store.Path = storePath
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error:\n  %v\n", err)
		return 1
	}
	if err := config.NewManager(configPath).Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("wrote %s\n", configPath)
	return 0
}
