// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging builds the structured loggers used by the rrt CLI and
// service.
//
// Records always go to one writer (stderr by default) and, when LogDir is
// set, also to a JSON file named "{service}_{YYYY-MM-DD}.log":
//
//	log, err := logging.New(logging.Config{
//	    Level:   slog.LevelInfo,
//	    LogDir:  "~/.rrt/logs",
//	    Service: "rrt",
//	})
//	if err != nil {
//	    return err
//	}
//	defer log.Close()
//	log.Slog().Info("planning", "seed", seed)
//
// # Thread Safety
//
// Logger is safe for concurrent use.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config configures a Logger.
type Config struct {
	// Level is the minimum level written to every destination.
	Level slog.Level

	// JSON selects JSON output for Output. The log file is always JSON.
	JSON bool

	// Output receives records unless Quiet is set. Default: os.Stderr.
	Output io.Writer

	// Quiet disables Output.
	Quiet bool

	// LogDir enables the log file. A leading ~ is expanded. The directory
	// is created with 0750 permissions.
	LogDir string

	// Service is attached to every record as "service" and names the file.
	Service string

	// Now stamps the file name. Default: time.Now.
	Now func() time.Time
}

// Logger owns an slog.Logger and the log file behind it, if any.
type Logger struct {
	slog *slog.Logger
	path string

	mu   sync.Mutex
	file *os.File
}

// New creates a Logger.
//
// Outputs:
//   - *Logger: Must be closed to release the log file.
//   - error: Non-nil if the log directory or file cannot be created.
func New(cfg Config) (*Logger, error) {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	l := &Logger{}

	var handlers []slog.Handler
	if !cfg.Quiet {
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}
		if cfg.JSON {
			handlers = append(handlers, slog.NewJSONHandler(out, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(out, opts))
		}
	}

	if cfg.LogDir != "" {
		dir := expandPath(cfg.LogDir)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		now := time.Now
		if cfg.Now != nil {
			now = cfg.Now
		}
		service := cfg.Service
		if service == "" {
			service = "rrt"
		}
		l.path = filepath.Join(dir, fmt.Sprintf("%s_%s.log", service, now().Format("2006-01-02")))
		file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l.file = file
		handlers = append(handlers, slog.NewJSONHandler(file, opts))
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.DiscardHandler
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}
	if cfg.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", cfg.Service)})
	}

	l.slog = slog.New(handler)
	return l, nil
}

// Slog returns the underlying logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Path returns the log file path, or "" when file logging is off.
func (l *Logger) Path() string {
	return l.path
}

// Close syncs and closes the log file. Safe to call more than once.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	syncErr := l.file.Sync()
	closeErr := l.file.Close()
	l.file = nil
	if closeErr != nil {
		return closeErr
	}
	return syncErr
}

// multiHandler fans records out to several handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// expandPath expands a leading ~ to the home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
