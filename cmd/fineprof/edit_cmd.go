// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/ManuGH/informant/internal/configform"
	"github.com/ManuGH/informant/internal/fineprofiling"
	"github.com/ManuGH/informant/internal/navigation"
)

const (
	editLocation = "fineprof/edit"
	exitLocation = "exit"
	replPrompt   = "fineprof> "
)

var errQuit = errors.New("quit")

// repl drives one controller from line-oriented input.
type repl struct {
	c     *cli
	form  *configform.Controller
	bus   *navigation.Bus
	lines *bufio.Scanner
}

func (c *cli) runEditCLI(args []string) int {
	fs := flag.NewFlagSet("fineprof edit", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
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

	r := &repl{
		c:     c,
		form:  sess.form,
		bus:   navigation.NewBus(),
		lines: bufio.NewScanner(c.stdin),
	}
	unguard := sess.form.RegisterNavigationGuard(r.bus, navigation.ConfirmFunc(r.confirm))
	defer unguard()

	return r.loop(ctx)
}

func (r *repl) loop(ctx context.Context) int {
	out := r.c.stdout
	r.printForm()
	for {
		fmt.Fprint(out, replPrompt)
		if !r.lines.Scan() {
			fmt.Fprintln(out)
			if r.form.HasChanges() {
				fmt.Fprintln(r.c.stderr, "Input closed; unsaved changes were discarded")
			}
			return exitOK
		}
		fields := strings.Fields(r.lines.Text())
		if len(fields) == 0 {
			continue
		}
		err := r.dispatch(ctx, fields[0], fields[1:])
		switch {
		case errors.Is(err, errQuit):
			return exitOK
		case err != nil:
			r.printError(err)
		}
		if ctx.Err() != nil {
			return exitError
		}
	}
}

func (r *repl) dispatch(ctx context.Context, cmd string, args []string) error {
	out := r.c.stdout
	switch cmd {
	case "help", "?":
		r.printHelp()
	case "show":
		r.printForm()
	case "diff":
		snap, ok := r.form.Snapshot()
		if !ok {
			return configform.ErrNotLoaded
		}
		if d := fineprofiling.Diff(snap, r.form.Config()); d != "" {
			fmt.Fprint(out, d)
		} else {
			fmt.Fprintln(out, "No changes")
		}
	case "set":
		if len(args) < 1 {
			return errors.New("usage: set <field> [value]")
		}
		return r.set(args[0], strings.Join(args[1:], " "))
	case "save":
		msg, err := r.form.Save(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (version %s)\n", msg, r.form.Config().Version)
	case "reload":
		if r.form.HasChanges() && !r.confirm("Reload and discard your unsaved changes?") {
			return nil
		}
		if err := r.form.Load(ctx); err != nil {
			return err
		}
		r.printForm()
	case "quit", "exit", "q":
		if !r.bus.Navigate(editLocation, exitLocation) {
			fmt.Fprintln(out, "Staying; use save to keep your changes")
			return nil
		}
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

// set applies one field edit. Values are parsed leniently ("1", "true",
// "50.0"); an empty threshold clears the override value.
func (r *repl) set(field, value string) error {
	switch field {
	case "enabled":
		b, err := cast.ToBoolE(value)
		if err != nil {
			return fmt.Errorf("enabled: %w", err)
		}
		return r.form.Edit(func(c *fineprofiling.Config) { c.Enabled = b })
	case "trace", "tracePercentage":
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return fmt.Errorf("trace: %w", err)
		}
		if err := checkTrace(f); err != nil {
			return fmt.Errorf("trace: %w", err)
		}
		return r.form.Edit(func(c *fineprofiling.Config) { c.TracePercentage = f })
	case "interval", "intervalMillis":
		n, err := positiveInt(value)
		if err != nil {
			return fmt.Errorf("interval: %w", err)
		}
		return r.form.Edit(func(c *fineprofiling.Config) { c.IntervalMillis = n })
	case "total", "totalSeconds":
		n, err := positiveInt(value)
		if err != nil {
			return fmt.Errorf("total: %w", err)
		}
		return r.form.Edit(func(c *fineprofiling.Config) { c.TotalSeconds = n })
	case "override":
		on, err := parseSwitch(value)
		if err != nil {
			return fmt.Errorf("override: %w", err)
		}
		return r.form.SetOverrideEnabled(on)
	case "threshold", "storeThresholdMillis":
		if !r.form.EditState().OverrideEnabled {
			return errors.New("threshold: enable the override first (set override on)")
		}
		if value == "" || value == "-" {
			return r.form.SetOverrideValue(nil)
		}
		n, err := cast.ToIntE(value)
		if err != nil {
			return fmt.Errorf("threshold: %w", err)
		}
		return r.form.SetOverrideValue(&n)
	default:
		return fmt.Errorf("unknown field %q (enabled, trace, interval, total, override, threshold)", field)
	}
}

func positiveInt(value string) (int, error) {
	n, err := cast.ToIntE(value)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

func parseSwitch(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return cast.ToBoolE(value)
}

// confirm asks a yes/no question on the REPL's own input.
func (r *repl) confirm(prompt string) bool {
	fmt.Fprintf(r.c.stdout, "%s [y/N] ", prompt)
	if !r.lines.Scan() {
		fmt.Fprintln(r.c.stdout)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(r.lines.Text())) {
	case "y", "yes":
		return true
	}
	return false
}

func (r *repl) printForm() {
	out := r.c.stdout
	cfg := r.form.Config()
	es := r.form.EditState()

	override := "off (general: " + cast.ToString(r.form.GeneralStoreThresholdMillis()) + " ms)"
	if es.OverrideEnabled {
		override = "on, " + es.ValueString() + " ms"
	}
	fmt.Fprintf(out, "  enabled    %t\n", cfg.Enabled)
	fmt.Fprintf(out, "  trace      %g %%\n", cfg.TracePercentage)
	fmt.Fprintf(out, "  interval   %d ms\n", cfg.IntervalMillis)
	fmt.Fprintf(out, "  total      %d s\n", cfg.TotalSeconds)
	fmt.Fprintf(out, "  override   %s\n", override)
	fmt.Fprintf(out, "  version    %s\n", cfg.Version)
	if r.form.HasChanges() {
		fmt.Fprintln(out, "  (unsaved changes)")
	}
}

func (r *repl) printError(err error) {
	var le *configform.LoadError
	var se *configform.SaveError
	switch {
	case configform.IsConflict(err):
		fmt.Fprintln(r.c.stderr, err.Error())
	case errors.As(err, &se) && se.HTTP != nil:
		r.c.printClassified("Save failed", se.HTTP.Headline, se.HTTP.Detail)
	case errors.As(err, &le) && le.HTTP != nil:
		r.c.printClassified("Load failed", le.HTTP.Headline, le.HTTP.Detail)
	default:
		fmt.Fprintf(r.c.stderr, "Error: %v\n", err)
	}
}

func (r *repl) printHelp() {
	fmt.Fprintln(r.c.stdout, `Commands:
  show                     print the form
  set enabled <bool>       turn fine profiling on or off
  set trace <percent>      trace percentage (0-100)
  set interval <ms>        sampling interval
  set total <seconds>      total profiling duration
  set override on|off      override the general store threshold
  set threshold [ms]       override value; empty clears it
  diff                     show unsaved changes
  save                     save changes
  reload                   discard changes and reload
  quit                     leave (asks when changes are unsaved)`)
}
