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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianRRT/services/rrt/config"
	"github.com/AleutianAI/AleutianRRT/services/rrt/journal"
	"github.com/AleutianAI/AleutianRRT/services/rrt/runner"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const corridor = "#########\n#  *    #\n#       #\n### #####\n#  @    #\n#       #\n#########"

const walled = "#########\n#  *    #\n#       #\n#########\n#  @    #\n#       #\n#########"

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Journal.InMemory = true
	cfg.Observability.TracingEnabled = false
	return cfg
}

func setupRouter(t *testing.T, cfg config.Config, withJournal bool) *gin.Engine {
	t.Helper()
	var opts []runner.Option
	if withJournal {
		j, err := journal.Open(cfg.Journal, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = j.Close() })
		opts = append(opts, runner.WithJournal(j))
	}
	r, err := runner.New(cfg, opts...)
	require.NoError(t, err)
	return NewRouter(cfg, r, nil)
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func seed(v uint64) *uint64 { return &v }

func TestHandlePlan_PathPlanned(t *testing.T) {
	router := setupRouter(t, testConfig(), true)

	w := do(t, router, http.MethodPost, "/v1/rrt/plan", PlanRequest{Maze: corridor, Seed: seed(5), Render: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	resp := decode[PlanResponse](t, w)
	assert.Equal(t, "path_planned", resp.Outcome)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, len(resp.Path), resp.PathLength)
	assert.GreaterOrEqual(t, resp.PathLength, 4)
	assert.Contains(t, resp.Rendered, "###.#####")

	w = do(t, router, http.MethodGet, "/v1/rrt/runs/"+resp.RunID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rec := decode[journal.Record](t, w)
	assert.Equal(t, resp.RunID, rec.ID)
	assert.Equal(t, uint64(5), rec.Seed)

	w = do(t, router, http.MethodGet, "/v1/rrt/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[ListRunsResponse](t, w)
	assert.Equal(t, 1, list.Count)
}

func TestHandlePlan_LimitReached(t *testing.T) {
	router := setupRouter(t, testConfig(), false)

	w := do(t, router, http.MethodPost, "/v1/rrt/plan", PlanRequest{Maze: walled, MaxIterations: 25, Cache: "linear"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[PlanResponse](t, w)
	assert.Equal(t, "limit_reached", resp.Outcome)
	assert.Equal(t, 25, resp.Iterations)
	assert.Empty(t, resp.Path)
	assert.Equal(t, "iterations", resp.Budget.ExhaustedBy)
}

func TestHandlePlan_DefaultMaze(t *testing.T) {
	router := setupRouter(t, testConfig(), false)

	w := do(t, router, http.MethodPost, "/v1/rrt/plan", PlanRequest{MaxIterations: 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[PlanResponse](t, w)
	assert.Contains(t, []string{"limit_reached", "path_planned"}, resp.Outcome)
}

func TestHandlePlan_NamedMaze(t *testing.T) {
	router := setupRouter(t, testConfig(), false)

	w := do(t, router, http.MethodPost, "/v1/rrt/plan", PlanRequest{MazeName: "open", Seed: seed(2), Render: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[PlanResponse](t, w)
	assert.Equal(t, "path_planned", resp.Outcome)
	assert.True(t, strings.HasPrefix(resp.Rendered, "##########\n#*"), resp.Rendered)
}

func TestHandlePlan_BadRequests(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxMazeBytes = 64
	router := setupRouter(t, cfg, false)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"unknown cache", PlanRequest{Cache: "bloom"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"negative budget", PlanRequest{MaxNodes: -1}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"not json", "{{", http.StatusBadRequest, "INVALID_REQUEST"},
		{"no markers", PlanRequest{Maze: "###\n# #\n###"}, http.StatusBadRequest, "INVALID_MAZE"},
		{"too large", PlanRequest{Maze: strings.Repeat("#", 65)}, http.StatusRequestEntityTooLarge, "MAZE_TOO_LARGE"},
		{"unknown maze name", PlanRequest{MazeName: "labyrinth"}, http.StatusBadRequest, "UNKNOWN_MAZE"},
		{"maze and name", PlanRequest{Maze: "*@", MazeName: "open"}, http.StatusBadRequest, "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/v1/rrt/plan", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decode[ErrorResponse](t, w).Code)
		})
	}
}

func TestHandlePlan_Timeout(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RequestTimeout = 20 * time.Millisecond
	router := setupRouter(t, cfg, false)

	w := do(t, router, http.MethodPost, "/v1/rrt/plan", PlanRequest{Maze: walled, MaxIterations: 10000000})
	require.Equal(t, http.StatusGatewayTimeout, w.Code, w.Body.String())
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "PLAN_TIMEOUT", resp.Code)
	assert.Equal(t, "limiter", resp.Details)
}

func TestHandleRuns_NotFoundAndDisabled(t *testing.T) {
	router := setupRouter(t, testConfig(), true)
	w := do(t, router, http.MethodGet, "/v1/rrt/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RUN_NOT_FOUND", decode[ErrorResponse](t, w).Code)

	w = do(t, router, http.MethodGet, "/v1/rrt/runs/-leading", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_RUN_ID", decode[ErrorResponse](t, w).Code)

	w = do(t, router, http.MethodGet, "/v1/rrt/runs?limit=0", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, router, http.MethodGet, "/v1/rrt/runs?limit=5000", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	router = setupRouter(t, testConfig(), false)
	w = do(t, router, http.MethodGet, "/v1/rrt/runs", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "JOURNAL_DISABLED", decode[ErrorResponse](t, w).Code)
}

func TestHandleHealth(t *testing.T) {
	router := setupRouter(t, testConfig(), true)
	w := do(t, router, http.MethodGet, "/v1/rrt/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, ServiceVersion, resp.Version)
	assert.True(t, resp.Journal)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit = 0.001
	cfg.Server.RateBurst = 1
	router := setupRouter(t, cfg, false)

	w := do(t, router, http.MethodGet, "/v1/rrt/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, router, http.MethodGet, "/v1/rrt/health", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMITED", decode[ErrorResponse](t, w).Code)

	// Not behind the limiter.
	w = do(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupRouter(t, testConfig(), false)
	w := do(t, router, http.MethodPost, "/v1/rrt/plan", PlanRequest{Maze: corridor, Seed: seed(1)})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `rrt_runs_total{outcome="path_planned"}`)
}

func TestRequestID_Propagates(t *testing.T) {
	router := setupRouter(t, testConfig(), false)
	req := httptest.NewRequest(http.MethodGet, "/v1/rrt/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestPlanKey(t *testing.T) {
	a := planKey(PlanRequest{Maze: corridor, Seed: seed(1)})
	assert.Equal(t, a, planKey(PlanRequest{Maze: corridor, Seed: seed(1), Render: true}))
	assert.NotEqual(t, a, planKey(PlanRequest{Maze: corridor, Seed: seed(2)}))
	assert.NotEqual(t, a, planKey(PlanRequest{Maze: corridor}))
	assert.NotEqual(t, a, planKey(PlanRequest{Maze: corridor, Seed: seed(1), Cache: "linear"}))
	assert.NotEqual(t, planKey(PlanRequest{MazeName: "open"}), planKey(PlanRequest{MazeName: "spiral"}))
}
