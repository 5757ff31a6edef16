// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package runner executes grid planning jobs with tracing, metrics and
// journaling attached, alone or as a bounded concurrent batch.
package runner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianRRT/pkg/rrt"
	"github.com/AleutianAI/AleutianRRT/pkg/rrt/budget"
	"github.com/AleutianAI/AleutianRRT/pkg/validation"
	"github.com/AleutianAI/AleutianRRT/services/rrt/config"
	"github.com/AleutianAI/AleutianRRT/services/rrt/grid"
	"github.com/AleutianAI/AleutianRRT/services/rrt/journal"
	"github.com/AleutianAI/AleutianRRT/services/rrt/observe"
)

// Job describes one planning run. Zero fields take the runner's defaults.
type Job struct {
	// ID names the run; a random UUID is used when empty. See
	// validation.ValidateRunID for the allowed form.
	ID string

	// Maze is the grid to plan on; nil selects the configured maze.
	Maze *grid.Grid

	Seed   *uint64
	Cache  grid.CacheStrategy
	Budget *budget.Config

	// Sampler replaces the seeded uniform sampler.
	Sampler rrt.Sampler[grid.Coord]
}

// Result is the outcome of one job.
type Result struct {
	Record  journal.Record
	Outcome rrt.Outcome[grid.Coord]
	Maze    *grid.Grid

	// Err is the planning error, if any. Run also returns it.
	Err error
}

// Runner runs planning jobs.
//
// Thread Safety: Safe for concurrent use.
type Runner struct {
	cfg     config.Config
	maze    atomic.Pointer[grid.Grid]
	tracer  *observe.RunTracer
	journal *journal.Journal
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithJournal records every run in j.
func WithJournal(j *journal.Journal) Option {
	return func(r *Runner) {
		r.journal = j
	}
}

// WithTracer replaces the default run tracer.
func WithTracer(t *observe.RunTracer) Option {
	return func(r *Runner) {
		r.tracer = t
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a runner. The configured maze is loaded here; WatchMaze keeps
// it current.
//
// Outputs:
//   - *Runner: The runner.
//   - error: Non-nil if cfg.Planner.Maze cannot be read or parsed.
func New(cfg config.Config, opts ...Option) (*Runner, error) {
	r := &Runner{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if r.tracer == nil {
		r.tracer = observe.NewRunTracer(r.logger, observe.WithTracing(cfg.Observability.TracingEnabled))
	}

	maze, err := LoadMaze(cfg.Planner.Maze)
	if err != nil {
		return nil, err
	}
	r.maze.Store(maze)
	return r, nil
}

// Maze returns the configured maze.
func (r *Runner) Maze() *grid.Grid {
	return r.maze.Load()
}

// Journal returns the run journal, nil when journaling is off.
func (r *Runner) Journal() *journal.Journal {
	return r.journal
}

// Run executes job.
//
// Description:
//
//	Builds a grid planner for the job, runs it inside an observed run and
//	appends the result to the journal when one is configured. Cancelling
//	ctx aborts the run at its next limiter check.
//
// Outputs:
//   - Result: The run result. Record is filled even for failed runs.
//   - error: Non-nil if the planner could not be built, planning failed or
//     the record could not be journaled.
func (r *Runner) Run(ctx context.Context, job Job) (Result, error) {
	job = r.withDefaults(job)
	if err := validation.ValidateRunID(job.ID); err != nil {
		return Result{}, err
	}

	p, b, err := grid.NewPlanner(job.Maze,
		grid.WithSeed(*job.Seed),
		grid.WithCache(job.Cache),
		grid.WithBudget(*job.Budget),
		grid.WithSampler(job.Sampler),
	)
	if err != nil {
		return Result{}, fmt.Errorf("build planner: %w", err)
	}
	p.Limiter = cancellable(ctx, p.Limiter)

	info := observe.RunInfo{
		RunID:  job.ID,
		Domain: "grid",
		Seed:   *job.Seed,
		Cache:  string(job.Cache),
	}
	out, summary, planErr := observe.Plan(ctx, r.tracer, info, p, job.Maze.Start())

	rec := journal.Record{
		ID:         job.ID,
		CreatedAt:  time.Now().UTC(),
		Seed:       *job.Seed,
		Cache:      string(job.Cache),
		MazeHash:   MazeHash(job.Maze),
		Outcome:    summary.Outcome,
		Iterations: out.Iterations,
		Nodes:      out.Nodes,
		Path:       out.Path,
		Elapsed:    summary.Elapsed,
		Stats:      summary.Stats,
		Budget:     b.Report(),
	}
	if planErr != nil {
		rec.Outcome = "error"
		rec.Error = planErr.Error()
		if source, ok := rrt.SourceOf(planErr); ok {
			rec.ErrorSource = source.String()
		}
	}

	if r.journal != nil {
		if err := r.journal.Append(context.WithoutCancel(ctx), &rec); err != nil {
			r.logger.Error("journal append failed",
				slog.String("run_id", job.ID),
				slog.String("error", err.Error()))
			planErr = errors.Join(planErr, fmt.Errorf("journal: %w", err))
		}
	}

	res := Result{Record: rec, Outcome: out, Maze: job.Maze, Err: planErr}
	return res, planErr
}

// RunBatch runs jobs concurrently, at most Runner.MaxConcurrency at a time.
//
// Every job runs to completion even if others fail; results keep the order
// of jobs. The returned error joins the per-job errors.
func (r *Runner) RunBatch(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.cfg.Runner.MaxConcurrency, 1))
	for i, job := range jobs {
		g.Go(func() error {
			res, err := r.Run(gctx, job)
			if res.Err == nil {
				res.Err = err
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for i, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("job %d: %w", i, res.Err))
		}
	}
	r.logger.Info("RRT batch completed",
		slog.Int("jobs", len(jobs)),
		slog.Int("failed", len(errs)))
	return results, errors.Join(errs...)
}

func (r *Runner) withDefaults(job Job) Job {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Maze == nil {
		job.Maze = r.maze.Load()
	}
	if job.Seed == nil {
		seed := r.cfg.Planner.Seed
		job.Seed = &seed
	}
	if job.Cache == "" {
		job.Cache = grid.CacheStrategy(r.cfg.Planner.Cache)
	}
	if job.Budget == nil {
		b := r.cfg.Planner.Budget
		job.Budget = &b
	}
	return job
}

// cancellable makes limiter fail once ctx is done.
func cancellable[S any](ctx context.Context, limiter rrt.Limiter[S]) rrt.Limiter[S] {
	return rrt.LimiterFunc[S](func(tree rrt.TreeView[S]) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		return limiter.LimitExceeded(tree)
	})
}

// MazeHash identifies a maze layout in run records.
func MazeHash(g *grid.Grid) string {
	sum := sha256.Sum256([]byte(g.String()))
	return hex.EncodeToString(sum[:8])
}
