// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/AleutianRRT/pkg/rrt/budget"
	"github.com/AleutianAI/AleutianRRT/pkg/validation"
	"github.com/AleutianAI/AleutianRRT/services/rrt/config"
	"github.com/AleutianAI/AleutianRRT/services/rrt/grid"
	"github.com/AleutianAI/AleutianRRT/services/rrt/journal"
	"github.com/AleutianAI/AleutianRRT/services/rrt/mazes"
	"github.com/AleutianAI/AleutianRRT/services/rrt/runner"
)

const defaultListLimit = 20

// Handlers serves the planning API.
//
// Thread Safety: Safe for concurrent use.
type Handlers struct {
	runner *runner.Runner
	cfg    config.ServerConfig
	logger *slog.Logger

	// plans collapses identical in-flight plan requests into one run.
	plans singleflight.Group
}

// NewHandlers creates the handlers.
func NewHandlers(r *runner.Runner, cfg config.ServerConfig, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{runner: r, cfg: cfg, logger: logger}
}

// RegisterRoutes registers the planning endpoints under rg.
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rrt := rg.Group("/rrt")
	{
		rrt.POST("/plan", h.HandlePlan)
		rrt.GET("/runs", h.HandleListRuns)
		rrt.GET("/runs/:id", h.HandleGetRun)
		rrt.GET("/health", h.HandleHealth)
	}
}

// HandlePlan handles POST /v1/rrt/plan.
//
// Description:
//
//	Plans a path through the request maze, a built-in maze chosen by name,
//	or the configured one. Requests
//	with the same maze, seed, cache and budget that arrive while an equal
//	run is in flight share its result.
//
// Responses:
//
//	200 - PlanResponse, for every outcome kind
//	400 - invalid body, maze or maze name
//	413 - maze larger than the configured limit
//	504 - the run hit the request timeout
//	500 - planning failed
func (h *Handlers) HandlePlan(c *gin.Context) {
	logger := h.logger.With(slog.String("request_id", requestID(c)), slog.String("handler", "HandlePlan"))

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}
	if len(req.Maze) > h.cfg.MaxMazeBytes {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: fmt.Sprintf("maze exceeds %d bytes", h.cfg.MaxMazeBytes),
			Code:  "MAZE_TOO_LARGE",
		})
		return
	}

	job := runner.Job{
		Seed:  req.Seed,
		Cache: grid.CacheStrategy(req.Cache),
	}
	switch {
	case req.Maze != "":
		g, err := grid.ParseString(req.Maze)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: err.Error(),
				Code:  "INVALID_MAZE",
			})
			return
		}
		job.Maze = g
	case req.MazeName != "":
		g, err := mazes.Builtin().Get(req.MazeName)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: err.Error(),
				Code:  "UNKNOWN_MAZE",
			})
			return
		}
		job.Maze = g
	}
	if req.MaxIterations > 0 || req.MaxNodes > 0 || req.TimeLimitMs > 0 {
		job.Budget = &budget.Config{
			MaxIterations: req.MaxIterations,
			MaxNodes:      req.MaxNodes,
			TimeLimit:     time.Duration(req.TimeLimitMs) * time.Millisecond,
		}
	}

	// The shared run must not die with whichever caller started it.
	ctx := context.WithoutCancel(c.Request.Context())
	if h.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.RequestTimeout)
		defer cancel()
	}

	v, err, shared := h.plans.Do(planKey(req), func() (any, error) {
		return h.runner.Run(ctx, job)
	})
	res, _ := v.(runner.Result)
	if err != nil {
		status, code := http.StatusInternalServerError, "PLAN_FAILED"
		if errors.Is(err, context.DeadlineExceeded) {
			status, code = http.StatusGatewayTimeout, "PLAN_TIMEOUT"
		}
		logger.Error("Plan failed",
			slog.String("run_id", res.Record.ID),
			slog.String("error", err.Error()))
		c.JSON(status, ErrorResponse{
			Error:   err.Error(),
			Code:    code,
			Details: res.Record.ErrorSource,
		})
		return
	}

	resp := PlanResponse{
		RunID:      res.Record.ID,
		Outcome:    res.Record.Outcome,
		Iterations: res.Record.Iterations,
		Nodes:      res.Record.Nodes,
		Path:       res.Record.Path,
		PathLength: len(res.Record.Path),
		ElapsedMs:  float64(res.Record.Elapsed.Microseconds()) / 1000,
		Budget:     res.Record.Budget,
		Stats:      res.Record.Stats,
		Shared:     shared,
	}
	if req.Render {
		resp.Rendered = grid.Render(res.Maze, res.Record.Path, false)
	}

	logger.Info("Plan completed",
		slog.String("run_id", resp.RunID),
		slog.String("outcome", resp.Outcome),
		slog.Bool("shared", shared))
	c.JSON(http.StatusOK, resp)
}

// planKey identifies requests that produce the same run.
func planKey(req PlanRequest) string {
	h := sha256.New()
	seed := "default"
	if req.Seed != nil {
		seed = fmt.Sprint(*req.Seed)
	}
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%d\x00%d\x00", seed, req.Cache, req.MaxIterations, req.MaxNodes, req.TimeLimitMs)
	h.Write([]byte(req.Maze))
	if req.Maze == "" {
		h.Write([]byte("\x00" + req.MazeName))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HandleListRuns handles GET /v1/rrt/runs.
func (h *Handlers) HandleListRuns(c *gin.Context) {
	j := h.runner.Journal()
	if j == nil {
		journalDisabled(c)
		return
	}

	var q ListRunsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid query",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultListLimit
	}

	runs, err := j.List(c.Request.Context(), q.Limit)
	if err != nil {
		h.logger.Error("List runs failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "JOURNAL_FAILED",
		})
		return
	}
	if runs == nil {
		runs = []journal.Record{}
	}
	c.JSON(http.StatusOK, ListRunsResponse{Runs: runs, Count: len(runs)})
}

// HandleGetRun handles GET /v1/rrt/runs/:id.
func (h *Handlers) HandleGetRun(c *gin.Context) {
	j := h.runner.Journal()
	if j == nil {
		journalDisabled(c)
		return
	}

	rec, err := j.Get(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, validation.ErrInvalidRunID):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_RUN_ID",
		})
	case errors.Is(err, journal.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  "RUN_NOT_FOUND",
		})
	case err != nil:
		h.logger.Error("Get run failed", slog.String("id", c.Param("id")), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "JOURNAL_FAILED",
		})
	default:
		c.JSON(http.StatusOK, rec)
	}
}

// HandleHealth handles GET /v1/rrt/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	resp := HealthResponse{Status: "healthy", Version: ServiceVersion}
	if j := h.runner.Journal(); j != nil {
		resp.Journal = true
		resp.Runs = j.Len()
	}
	c.JSON(http.StatusOK, resp)
}

func journalDisabled(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, ErrorResponse{
		Error: "run journal is disabled",
		Code:  "JOURNAL_DISABLED",
	})
}
