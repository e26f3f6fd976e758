// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// combine-replay replays a YAML scenario of source and item changes
// against a combinator engine, printing what every step emits.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/juju/ansiterm"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"

	"github.com/juju/combinator/core/combinator"
	"github.com/juju/combinator/internal/scenario"
)

var (
	addColor    = ansiterm.Foreground(ansiterm.Green)
	removeColor = ansiterm.Foreground(ansiterm.BrightRed)
	stepColor   = ansiterm.Foreground(ansiterm.BrightBlue)
)

func main() {
	os.Exit(Main(os.Args[1:], os.Stdout, os.Stderr))
}

// Main runs the command with args, returning the exit code.
func Main(args []string, stdout, stderr io.Writer) int {
	if err := run(args, stdout, stderr); err != nil {
		if errors.Is(err, gnuflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "ERROR %v\n", err)
		return 1
	}
	return 0
}

type options struct {
	kind          string
	loggingConfig string
	color         bool
}

func run(args []string, stdout, stderr io.Writer) error {
	var opts options
	f := gnuflag.NewFlagSet("combine-replay", gnuflag.ContinueOnError)
	f.SetOutput(stderr)
	f.StringVar(&opts.kind, "kind", "", "Combine with this kind instead of the scenario's, one of [or, and, xor, except]")
	f.StringVar(&opts.loggingConfig, "logging-config", "<root>=WARNING", "Logging configuration")
	f.BoolVar(&opts.color, "color", false, "Force use of ANSI color codes")
	if err := f.Parse(true, args); err != nil {
		return err
	}
	if f.NArg() != 1 {
		return errors.New("expected one scenario file")
	}

	if err := loggo.ConfigureLoggers(opts.loggingConfig); err != nil {
		return errors.Annotate(err, "configuring logging")
	}

	data, err := os.ReadFile(f.Arg(0))
	if err != nil {
		return errors.Trace(err)
	}
	sc, err := scenario.Parse(data)
	if err != nil {
		return errors.Trace(err)
	}
	if opts.kind != "" {
		kind, err := combinator.ParseKind(opts.kind)
		if err != nil {
			return errors.Trace(err)
		}
		sc.Kind = kind.String()
	}

	w := ansiterm.NewWriter(stdout)
	if opts.color {
		w.SetColorCapable(true)
	}
	fmt.Fprintf(w, "combining with %s\n", sc.Kind)
	return scenario.Run(sc, func(r scenario.Result) {
		writeResult(w, r)
	})
}

func writeResult(w *ansiterm.Writer, r scenario.Result) {
	stepColor.Fprintf(w, "%3d", r.Step)
	fmt.Fprintf(w, " %s:", r.Name)
	if r.Changes == nil {
		fmt.Fprintln(w, " ok")
		return
	}
	for _, change := range r.Describe() {
		fmt.Fprint(w, " ")
		if strings.HasPrefix(change, "+") {
			addColor.Fprintf(w, "%s", change)
		} else {
			removeColor.Fprintf(w, "%s", change)
		}
	}
	fmt.Fprintf(w, " => [%s]\n", strings.Join(r.Output, " "))
}
