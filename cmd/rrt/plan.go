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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianRRT/pkg/rrt"
	"github.com/AleutianAI/AleutianRRT/services/rrt/grid"
	"github.com/AleutianAI/AleutianRRT/services/rrt/runner"
)

// jobFlags are the per-run overrides shared by plan and batch.
type jobFlags struct {
	maze          string
	seed          uint64
	cache         string
	maxIterations int
	maxNodes      int
	timeLimit     time.Duration
}

func (f *jobFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.maze, "maze", "", "Maze file (default: configured maze, or the built-in demo)")
	fl.Uint64Var(&f.seed, "seed", 1, "Sampler seed")
	fl.StringVar(&f.cache, "cache", "", "Seen cache strategy: hashed or linear")
	fl.IntVar(&f.maxIterations, "max-iterations", 0, "Sample limit")
	fl.IntVar(&f.maxNodes, "max-nodes", 0, "Tree size limit")
	fl.DurationVar(&f.timeLimit, "time-limit", 0, "Wall clock limit")
}

// job builds a job from the flags that were set; the rest come from config.
func (a *app) job(cmd *cobra.Command, f *jobFlags) (runner.Job, error) {
	flags := cmd.Flags()
	var job runner.Job

	if flags.Changed("maze") {
		g, err := runner.LoadMaze(f.maze)
		if err != nil {
			return job, err
		}
		job.Maze = g
	}
	if flags.Changed("seed") {
		seed := f.seed
		job.Seed = &seed
	}
	job.Cache = grid.CacheStrategy(f.cache)

	if flags.Changed("max-iterations") || flags.Changed("max-nodes") || flags.Changed("time-limit") {
		b := a.cfg.Planner.Budget
		if flags.Changed("max-iterations") {
			b.MaxIterations = f.maxIterations
		}
		if flags.Changed("max-nodes") {
			b.MaxNodes = f.maxNodes
		}
		if flags.Changed("time-limit") {
			b.TimeLimit = f.timeLimit
		}
		job.Budget = &b
	}
	return job, nil
}

func (a *app) planCmd() *cobra.Command {
	var (
		f        jobFlags
		runID    string
		noRender bool
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a path from the start cell to the finish cell",
		Args:  cobra.NoArgs,
	}
	f.register(cmd)
	cmd.Flags().StringVar(&runID, "run-id", "", "Run ID to journal under (default: a new UUID)")
	cmd.Flags().BoolVar(&noRender, "no-render", false, "Do not draw the maze")

	cmd.RunE = a.command(true, func(cmd *cobra.Command, _ []string) error {
		job, err := a.job(cmd, &f)
		if err != nil {
			return err
		}
		job.ID = runID
		res, err := a.runner.Run(cmd.Context(), job)
		if err != nil {
			return fmt.Errorf("plan %s: %w", res.Record.ID, err)
		}

		p := a.printer
		p.Title("RRT plan")
		p.Field("run_id", res.Record.ID)
		p.Field("outcome", res.Record.Outcome)
		p.Field("seed", res.Record.Seed)
		p.Field("cache", res.Record.Cache)
		p.Field("iterations", res.Record.Iterations)
		p.Field("nodes", res.Record.Nodes)
		p.Field("path_length", len(res.Record.Path))
		p.Field("elapsed", res.Record.Elapsed.Round(time.Microsecond))
		if res.Record.Budget.Exhausted {
			p.Field("budget", res.Record.Budget.ExhaustedBy)
		}
		if !noRender {
			p.Box("Maze", grid.Render(res.Maze, res.Outcome.Path, p.Styled()))
		}

		switch res.Outcome.Kind {
		case rrt.PathPlanned:
			p.Success(fmt.Sprintf("Path of %d cells found", len(res.Outcome.Path)))
		case rrt.NoPathExists:
			p.Warning("Sampler exhausted before reaching the finish cell")
		case rrt.LimitReached:
			p.Warning(fmt.Sprintf("Budget exhausted (%s) before reaching the finish cell", res.Record.Budget.ExhaustedBy))
		}
		return nil
	})
	return cmd
}

func (a *app) batchCmd() *cobra.Command {
	var (
		f     jobFlags
		seeds string
		count int
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run one plan per seed concurrently and summarise the outcomes",
		Args:  cobra.NoArgs,
	}
	f.register(cmd)
	cmd.Flags().StringVar(&seeds, "seeds", "", "Comma separated seeds")
	cmd.Flags().IntVar(&count, "count", 8, "Number of consecutive seeds starting at --seed, when --seeds is not set")

	cmd.RunE = a.command(true, func(cmd *cobra.Command, _ []string) error {
		template, err := a.job(cmd, &f)
		if err != nil {
			return err
		}
		list, err := seedList(seeds, f.seed, count)
		if err != nil {
			return err
		}

		jobs := make([]runner.Job, len(list))
		for i, seed := range list {
			jobs[i] = template
			jobs[i].Seed = &seed
		}
		results, batchErr := a.runner.RunBatch(cmd.Context(), jobs)

		rows := [][]string{{"SEED", "OUTCOME", "ITERATIONS", "NODES", "PATH", "RUN"}}
		planned := 0
		for i, res := range results {
			outcome := res.Record.Outcome
			if res.Err != nil && outcome == "" {
				outcome = "error"
			}
			if res.Outcome.Kind == rrt.PathPlanned && res.Err == nil {
				planned++
			}
			rows = append(rows, []string{
				strconv.FormatUint(list[i], 10),
				outcome,
				strconv.Itoa(res.Record.Iterations),
				strconv.Itoa(res.Record.Nodes),
				strconv.Itoa(len(res.Record.Path)),
				res.Record.ID,
			})
		}
		a.printer.Title("RRT batch")
		a.printer.Table(rows)
		a.printer.Field("planned", fmt.Sprintf("%d/%d", planned, len(results)))
		return batchErr
	})
	return cmd
}

// seedList parses --seeds, or counts up from first.
func seedList(seeds string, first uint64, count int) ([]uint64, error) {
	if seeds == "" {
		if count < 1 {
			return nil, fmt.Errorf("--count must be at least 1")
		}
		out := make([]uint64, count)
		for i := range out {
			out[i] = first + uint64(i)
		}
		return out, nil
	}
	var out []uint64
	for _, s := range strings.Split(seeds, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed %q: %w", s, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("--seeds lists no seeds")
	}
	return out, nil
}
