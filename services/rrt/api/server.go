// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package api serves planning runs and the run journal over HTTP.
//
// Routes:
//
//	POST /v1/rrt/plan       plan a path
//	GET  /v1/rrt/runs       list journaled runs, newest first
//	GET  /v1/rrt/runs/:id   fetch one run
//	GET  /v1/rrt/health     liveness
//	GET  /metrics           Prometheus scrape endpoint
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/AleutianRRT/services/rrt/config"
	"github.com/AleutianAI/AleutianRRT/services/rrt/runner"
	"github.com/AleutianAI/AleutianRRT/services/rrt/telemetry"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the gin engine for cfg.
//
// The /v1 group is rate limited; /metrics is not. Metrics come from the
// Prometheus exporter installed by telemetry.Init, or the default registry
// when none was installed.
func NewRouter(cfg config.Config, r *runner.Runner, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Observability.TracingEnabled {
		router.Use(otelgin.Middleware(cfg.Observability.ServiceName))
	}
	router.Use(RequestID(), RequestLogger(logger))

	if cfg.Observability.MetricsEnabled {
		metrics := telemetry.MetricsHandler()
		if metrics == nil {
			metrics = promhttp.Handler()
		}
		router.GET("/metrics", gin.WrapH(metrics))
	}

	v1 := router.Group("/v1")
	v1.Use(RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))
	RegisterRoutes(v1, NewHandlers(r, cfg.Server, logger))
	return router
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func Serve(ctx context.Context, cfg config.Config, r *runner.Runner, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           NewRouter(cfg, r, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting RRT server", slog.String("address", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down RRT server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
