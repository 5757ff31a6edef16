// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrNoMazeFile is returned by WatchMaze when no maze file is configured or
// the maze comes from the built-in catalog.
var ErrNoMazeFile = errors.New("no maze file configured")

// WatchMaze reloads the configured maze file whenever it changes, until ctx
// is done.
//
// Description:
//
//	The file's directory is watched so that editors which replace the file
//	are picked up too. Events are debounced; a file that no longer parses
//	is logged and the previous maze stays active. Runs already in progress
//	keep the maze they started with.
//
// Outputs:
//   - error: ErrNoMazeFile, a watcher setup error, or nil once ctx is done.
func (r *Runner) WatchMaze(ctx context.Context, debounce time.Duration) error {
	path := r.cfg.Planner.Maze
	if path == "" || strings.HasPrefix(path, BuiltinPrefix) {
		return ErrNoMazeFile
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve maze path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create maze watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	var timerC <-chan time.Time
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			timer.Reset(debounce)
			timerC = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("maze watcher error", slog.String("error", err.Error()))

		case <-timerC:
			timerC = nil
			r.reloadMaze(path)
		}
	}
}

func (r *Runner) reloadMaze(path string) {
	g, err := LoadMaze(path)
	if err != nil {
		r.logger.Warn("maze reload failed, keeping previous maze",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	r.maze.Store(g)
	r.logger.Info("maze reloaded",
		slog.String("path", path),
		slog.Int("width", g.Width()),
		slog.Int("height", g.Height()),
		slog.String("hash", MazeHash(g)))
}
