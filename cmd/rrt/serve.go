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
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianRRT/services/rrt/api"
	"github.com/AleutianAI/AleutianRRT/services/rrt/runner"
)

const mazeReloadDebounce = 250 * time.Millisecond

func (a *app) serveCmd() *cobra.Command {
	var (
		addr  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planning API over HTTP",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&watch, "watch", true, "Reload the maze file when it changes")

	cmd.RunE = a.command(false, func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("addr") {
			a.cfg.Server.Addr = addr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if watch && a.cfg.Planner.Maze != "" {
			go func() {
				if err := a.runner.WatchMaze(ctx, mazeReloadDebounce); err != nil && !errors.Is(err, runner.ErrNoMazeFile) {
					a.logger.Warn("maze watcher stopped", slog.String("error", err.Error()))
				}
			}()
		}
		return api.Serve(ctx, a.cfg, a.runner, a.logger)
	})
	return cmd
}
