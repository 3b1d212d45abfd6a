// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/informant/internal/configform"
	"github.com/ManuGH/informant/internal/fineprofiling"
)

// formView is what show prints: the record plus the derived override fields.
type formView struct {
	Config                      fineprofiling.Config `json:"config" yaml:"config"`
	GeneralStoreThresholdMillis int                  `json:"generalStoreThresholdMillis" yaml:"generalStoreThresholdMillis"`
	OverrideEnabled             bool                 `json:"overrideEnabled" yaml:"overrideEnabled"`
	OverrideValueMillis         *int                 `json:"overrideValueMillis" yaml:"overrideValueMillis"`
}

func viewOf(form *configform.Controller) formView {
	es := form.EditState()
	return formView{
		Config:                      form.Config(),
		GeneralStoreThresholdMillis: form.GeneralStoreThresholdMillis(),
		OverrideEnabled:             es.OverrideEnabled,
		OverrideValueMillis:         es.OverrideValueMillis,
	}
}

func writeView(w io.Writer, v formView, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q (use json or yaml)", format)
	}
}

func (c *cli) runShowCLI(args []string) int {
	fs := flag.NewFlagSet("fineprof show", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var common commonFlags
	common.register(fs)
	format := fs.String("format", "yaml", "output format: yaml or json")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *format != "json" && *format != "yaml" {
		fmt.Fprintf(c.stderr, "Error: unsupported format %q\n", *format)
		return exitUsage
	}

	sess, err := c.open(common)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitError
	}
	defer sess.shutdown()

	ctx, cancel := signalContext()
	defer cancel()

	if err := sess.form.Load(ctx); err != nil {
		return c.reportError(err)
	}
	if err := writeView(c.stdout, viewOf(sess.form), *format); err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}
