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
	"github.com/AleutianAI/AleutianRRT/pkg/rrt/budget"
	"github.com/AleutianAI/AleutianRRT/services/rrt/grid"
	"github.com/AleutianAI/AleutianRRT/services/rrt/journal"
	"github.com/AleutianAI/AleutianRRT/services/rrt/observe"
)

// ServiceVersion is reported by the health endpoint.
const ServiceVersion = "0.3.0"

// PlanRequest is the body of POST /v1/rrt/plan.
type PlanRequest struct {
	// Maze is the maze text. Empty selects MazeName or, failing that, the
	// server's configured maze.
	Maze string `json:"maze"`

	// MazeName selects a built-in maze. Cannot be combined with Maze.
	MazeName string `json:"maze_name" binding:"omitempty,excluded_with=Maze"`

	// Seed overrides the configured sampler seed.
	Seed *uint64 `json:"seed"`

	// Cache selects the seen cache strategy.
	Cache string `json:"cache" binding:"omitempty,oneof=hashed linear"`

	// MaxIterations, MaxNodes and TimeLimitMs override the configured
	// budget when any of them is set.
	MaxIterations int   `json:"max_iterations" binding:"gte=0,lte=10000000"`
	MaxNodes      int   `json:"max_nodes" binding:"gte=0"`
	TimeLimitMs   int64 `json:"time_limit_ms" binding:"gte=0"`

	// Render adds a plain text drawing of the maze and path.
	Render bool `json:"render"`
}

// PlanResponse is returned by POST /v1/rrt/plan.
type PlanResponse struct {
	RunID      string                `json:"run_id"`
	Outcome    string                `json:"outcome"`
	Iterations int                   `json:"iterations"`
	Nodes      int                   `json:"nodes"`
	Path       []grid.Coord          `json:"path,omitempty"`
	PathLength int                   `json:"path_length"`
	ElapsedMs  float64               `json:"elapsed_ms"`
	Budget     budget.UsageReport    `json:"budget"`
	Stats      observe.StatsSnapshot `json:"stats"`
	Rendered   string                `json:"rendered,omitempty"`
	Shared     bool                  `json:"shared,omitempty"`
}

// ListRunsQuery is the query of GET /v1/rrt/runs.
type ListRunsQuery struct {
	Limit int `form:"limit" binding:"omitempty,gte=1,lte=1000"`
}

// ListRunsResponse is returned by GET /v1/rrt/runs.
type ListRunsResponse struct {
	Runs  []journal.Record `json:"runs"`
	Count int              `json:"count"`
}

// HealthResponse is returned by GET /v1/rrt/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Journal bool   `json:"journal"`
	Runs    uint64 `json:"runs"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is a stable machine-readable error code.
	Code string `json:"code,omitempty"`

	// Details provides additional error context (optional).
	Details string `json:"details,omitempty"`
}
