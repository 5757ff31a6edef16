// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianRRT/pkg/logging"
	"github.com/AleutianAI/AleutianRRT/pkg/ux"
	"github.com/AleutianAI/AleutianRRT/services/rrt/api"
	"github.com/AleutianAI/AleutianRRT/services/rrt/config"
	"github.com/AleutianAI/AleutianRRT/services/rrt/journal"
	"github.com/AleutianAI/AleutianRRT/services/rrt/observe"
	"github.com/AleutianAI/AleutianRRT/services/rrt/runner"
	"github.com/AleutianAI/AleutianRRT/services/rrt/telemetry"
)

// app is the state shared by all subcommands for one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// flags
	configPath string
	output     string
	logLevel   string
	journalOn  bool
	journalDir string

	cfg      config.Config
	log      *logging.Logger
	logger   *slog.Logger
	printer  *ux.Printer
	journal  *journal.Journal
	runner   *runner.Runner
	shutdown func(context.Context) error
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:           "rrt",
		Short:         "Plan paths through grid mazes with a rapidly-exploring random tree",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Path to a YAML or JSON config file")
	pf.StringVarP(&a.output, "output", "o", "auto", "Output style: auto, styled, plain or machine")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.BoolVar(&a.journalOn, "journal", true, "Record runs in the run journal")
	pf.StringVar(&a.journalDir, "journal-dir", "", "Run journal directory")

	rootCmd.AddCommand(
		a.planCmd(),
		a.batchCmd(),
		a.serveCmd(),
		a.runsCmd(),
		a.mazesCmd(),
	)

	return rootCmd
}

// setup loads configuration and opens the shared services. oneShot
// commands have no scrape endpoint, so the Prometheus exporter is skipped
// for them.
func (a *app) setup(cmd *cobra.Command, oneShot bool) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Observability.LogLevel = a.logLevel
	}
	if flags.Changed("journal") {
		cfg.Journal.Enabled = a.journalOn
	}
	if flags.Changed("journal-dir") {
		cfg.Journal.Dir = a.journalDir
	}
	a.cfg = cfg

	level, err := ux.ParseLevel(a.output)
	if err != nil {
		return err
	}
	a.printer = ux.NewPrinter(a.stdout, ux.Resolve(level, a.stdout))
	a.log, err = cfg.Observability.NewLogger(a.stderr)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	a.logger = a.log.Slog()
	slog.SetDefault(a.logger)

	obs := cfg.Observability
	if oneShot && obs.MetricExporter == "prometheus" {
		obs.MetricExporter = "none"
	}
	a.shutdown, err = telemetry.Init(cmd.Context(), obs, telemetry.WithWriter(a.stderr), telemetry.WithVersion(api.ServiceVersion))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	opts := []runner.Option{
		runner.WithLogger(a.logger),
		runner.WithTracer(observe.NewRunTracer(a.logger, observe.WithTracing(obs.TracingEnabled))),
	}
	if cfg.Journal.Enabled {
		a.journal, err = journal.Open(cfg.Journal, a.logger)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		opts = append(opts, runner.WithJournal(a.journal))
	}

	a.runner, err = runner.New(cfg, opts...)
	return err
}

// teardown releases what setup opened.
func (a *app) teardown(ctx context.Context) error {
	var errs []error
	if a.journal != nil {
		errs = append(errs, a.journal.Close())
	}
	if a.shutdown != nil {
		errs = append(errs, a.shutdown(context.WithoutCancel(ctx)))
	}
	if a.log != nil {
		errs = append(errs, a.log.Close())
	}
	return errors.Join(errs...)
}

// command wraps run with setup and teardown.
func (a *app) command(oneShot bool, run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		if err := a.setup(cmd, oneShot); err != nil {
			_ = a.teardown(cmd.Context())
			return a.fail(err)
		}
		defer func() {
			err = errors.Join(err, a.teardown(cmd.Context()))
		}()
		if err := run(cmd, args); err != nil {
			return a.fail(err)
		}
		return nil
	}
}

// fail prints err and returns it so cobra sets the exit status.
func (a *app) fail(err error) error {
	if a.printer == nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return err
	}
	a.printer.Error(err.Error())
	return err
}
