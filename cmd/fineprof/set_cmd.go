// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"flag"
	"fmt"

	"github.com/ManuGH/informant/internal/fineprofiling"
)

func (c *cli) runSetCLI(args []string) int {
	fs := flag.NewFlagSet("fineprof set", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var common commonFlags
	common.register(fs)
	enabled := fs.Bool("enabled", false, "enable fine profiling")
	trace := fs.Float64("trace", 0, "trace percentage (0-100)")
	interval := fs.Int("interval", 0, "sampling interval in milliseconds")
	total := fs.Int("total", 0, "total profiling duration in seconds")
	override := fs.String("override", "", "store threshold override: on or off")
	threshold := fs.Int("threshold", 0, "store threshold override in milliseconds (implies --override=on)")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	given := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { given[f.Name] = true })

	switch *override {
	case "", "on", "off":
	default:
		fmt.Fprintf(c.stderr, "Error: --override must be on or off, got %q\n", *override)
		return exitUsage
	}
	if *override == "off" && given["threshold"] {
		fmt.Fprintln(c.stderr, "Error: --threshold cannot be combined with --override=off")
		return exitUsage
	}
	if given["trace"] {
		if err := checkTrace(*trace); err != nil {
			fmt.Fprintf(c.stderr, "Error: --trace: %v\n", err)
			return exitUsage
		}
	}
	if given["threshold"] && *threshold < 0 {
		fmt.Fprintln(c.stderr, "Error: --threshold cannot be negative")
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

	form := sess.form
	if err := form.Load(ctx); err != nil {
		return c.reportError(err)
	}

	if err := form.Edit(func(cfg *fineprofiling.Config) {
		if given["enabled"] {
			cfg.Enabled = *enabled
		}
		if given["trace"] {
			cfg.TracePercentage = *trace
		}
		if given["interval"] {
			cfg.IntervalMillis = *interval
		}
		if given["total"] {
			cfg.TotalSeconds = *total
		}
	}); err != nil {
		return c.reportError(err)
	}

	switch {
	case *override == "off":
		err = form.SetOverrideEnabled(false)
	case *override == "on" || given["threshold"]:
		err = form.SetOverrideEnabled(true)
		if err == nil && given["threshold"] {
			err = form.SetOverrideValue(threshold)
		}
	}
	if err != nil {
		return c.reportError(err)
	}

	if !form.HasChanges() {
		fmt.Fprintln(c.stdout, "No changes")
		return exitOK
	}

	msg, err := form.Save(ctx)
	if err != nil {
		return c.reportError(err)
	}
	fmt.Fprintf(c.stdout, "%s (version %s)\n", msg, form.Config().Version)
	return exitOK
}

// checkTrace rejects percentages outside 0-100, including NaN and infinities.
func checkTrace(f float64) error {
	if !(f >= 0 && f <= 100) {
		return fmt.Errorf("must be between 0 and 100, got %g", f)
	}
	return nil
}
