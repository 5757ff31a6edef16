// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package grid

import (
	"fmt"

	"github.com/AleutianAI/AleutianRRT/pkg/rrt"
	"github.com/AleutianAI/AleutianRRT/pkg/rrt/budget"
	"github.com/AleutianAI/AleutianRRT/pkg/rrt/seencache"
)

// CacheStrategy selects the seen cache used by NewPlanner.
type CacheStrategy string

const (
	CacheHashed CacheStrategy = "hashed"
	CacheLinear CacheStrategy = "linear"
)

// plannerOptions holds the settings collected from PlannerOption values.
type plannerOptions struct {
	seed    uint64
	sampler rrt.Sampler[Coord]
	budget  budget.Config
	cache   CacheStrategy
}

// PlannerOption configures NewPlanner.
type PlannerOption func(*plannerOptions)

// WithSeed seeds the uniform sampler. Ignored when WithSampler is used.
func WithSeed(seed uint64) PlannerOption {
	return func(o *plannerOptions) {
		o.seed = seed
	}
}

// WithSampler replaces the uniform sampler.
func WithSampler(s rrt.Sampler[Coord]) PlannerOption {
	return func(o *plannerOptions) {
		o.sampler = s
	}
}

// WithBudget sets the run limits.
func WithBudget(cfg budget.Config) PlannerOption {
	return func(o *plannerOptions) {
		o.budget = cfg
	}
}

// WithCache selects the seen cache strategy.
func WithCache(strategy CacheStrategy) PlannerOption {
	return func(o *plannerOptions) {
		o.cache = strategy
	}
}

// NewPlanner wires the grid collaborators into a planner for one run.
//
// Description:
//
//	Uses the aligned Manhattan metric, the wall and seen checker and the
//	finish-cell goal. Unless overridden, samples are drawn uniformly with
//	seed 1, the budget is budget.DefaultConfig and states are remembered in
//	a hashed cache. The planner carries run state (sampler position,
//	budget counters, cache contents), so build one per run.
//
// Outputs:
//   - *rrt.Planner[Coord]: The planner; call Plan(g.Start())
//   - *budget.Budget: The budget behind the limiter, for reporting
//   - error: Non-nil for an unknown cache strategy
func NewPlanner(g *Grid, opts ...PlannerOption) (*rrt.Planner[Coord], *budget.Budget, error) {
	o := plannerOptions{
		seed:   1,
		budget: budget.DefaultConfig(),
		cache:  CacheHashed,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var cache rrt.SeenCache[Coord]
	switch o.cache {
	case CacheHashed, "":
		cache = seencache.NewHashed[Coord]()
	case CacheLinear:
		cache = seencache.NewLinear[Coord]()
	default:
		return nil, nil, fmt.Errorf("unknown cache strategy %q", o.cache)
	}

	sampler := o.sampler
	if sampler == nil {
		sampler = NewUniformSampler(g, o.seed)
	}

	b := budget.New(o.budget)
	return &rrt.Planner[Coord]{
		Sampler:   sampler,
		Limiter:   budget.Limiter[Coord](b),
		Goal:      Goal(g),
		Nearest:   rrt.NewMetricLocator(Metric()),
		Checker:   NewChecker(g),
		SeenCache: cache,
	}, b, nil
}
