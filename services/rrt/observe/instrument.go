// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package observe

import (
	"context"
	"iter"
	"log/slog"
	"sync/atomic"

	"github.com/AleutianAI/AleutianRRT/pkg/rrt"
)

// Stats counts collaborator calls during one run.
//
// Thread Safety: Safe for concurrent use.
type Stats struct {
	LimitChecks  atomic.Int64
	Samples      atomic.Int64
	NearestCalls atomic.Int64
	NoNearest    atomic.Int64
	Accepted     atomic.Int64
	Rejected     atomic.Int64
	GoalChecks   atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	LimitChecks  int64 `json:"limit_checks"`
	Samples      int64 `json:"samples"`
	NearestCalls int64 `json:"nearest_calls"`
	NoNearest    int64 `json:"no_nearest"`
	Accepted     int64 `json:"accepted"`
	Rejected     int64 `json:"rejected"`
	GoalChecks   int64 `json:"goal_checks"`
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		LimitChecks:  s.LimitChecks.Load(),
		Samples:      s.Samples.Load(),
		NearestCalls: s.NearestCalls.Load(),
		NoNearest:    s.NoNearest.Load(),
		Accepted:     s.Accepted.Load(),
		Rejected:     s.Rejected.Load(),
		GoalChecks:   s.GoalChecks.Load(),
	}
}

// Instrument returns a copy of p whose collaborators count their calls in
// stats, export metrics and log failures to logger.
//
// The engine never logs; this is where diagnostics are attached. ctx is
// only used to correlate log records with the active span.
func Instrument[S any](ctx context.Context, p *rrt.Planner[S], stats *Stats, logger *slog.Logger) *rrt.Planner[S] {
	if logger == nil {
		logger = slog.Default()
	}
	if stats == nil {
		stats = &Stats{}
	}
	obs := observer{ctx: ctx, stats: stats, logger: logger}

	out := &rrt.Planner[S]{
		Sampler: sampler[S]{next: p.Sampler, observer: obs},
		Limiter: limiter[S]{next: p.Limiter, observer: obs},
		Goal:    goal[S]{next: p.Goal, observer: obs},
		Nearest: nearest[S]{next: p.Nearest, observer: obs},
		Checker: checker[S]{next: p.Checker, observer: obs},
	}
	if p.SeenCache != nil {
		out.SeenCache = seenCache[S]{next: p.SeenCache, observer: obs}
	}
	return out
}

type observer struct {
	ctx    context.Context
	stats  *Stats
	logger *slog.Logger
}

func (o observer) failed(source rrt.Source, err error) {
	collaboratorErrors.WithLabelValues(source.String()).Inc()
	o.logger.ErrorContext(o.ctx, "RRT collaborator failed",
		slog.String("source", source.String()),
		slog.String("error", err.Error()),
	)
}

type sampler[S any] struct {
	next rrt.Sampler[S]
	observer
}

func (s sampler[S]) Sample(tree rrt.TreeView[S]) (S, bool, error) {
	s.stats.Samples.Add(1)
	state, ok, err := s.next.Sample(tree)
	if err != nil {
		s.failed(rrt.SourceSampler, err)
	} else if !ok {
		s.logger.DebugContext(s.ctx, "RRT sampler exhausted", slog.Int("nodes", tree.Len()))
	}
	return state, ok, err
}

type limiter[S any] struct {
	next rrt.Limiter[S]
	observer
}

func (l limiter[S]) LimitExceeded(tree rrt.TreeView[S]) (bool, error) {
	l.stats.LimitChecks.Add(1)
	exceeded, err := l.next.LimitExceeded(tree)
	if err != nil {
		l.failed(rrt.SourceLimiter, err)
	} else if exceeded {
		l.logger.DebugContext(l.ctx, "RRT limit reached", slog.Int("nodes", tree.Len()))
	}
	return exceeded, err
}

type goal[S any] struct {
	next rrt.GoalChecker[S]
	observer
}

func (g goal[S]) GoalReached(node rrt.Node[S]) (bool, error) {
	g.stats.GoalChecks.Add(1)
	done, err := g.next.GoalReached(node)
	if err != nil {
		g.failed(rrt.SourceGoalChecker, err)
	}
	return done, err
}

type nearest[S any] struct {
	next rrt.NearestLocator[S]
	observer
}

func (n nearest[S]) Nearest(sample S, nodes iter.Seq2[rrt.NodeRef, S]) (rrt.NodeRef, bool, error) {
	n.stats.NearestCalls.Add(1)
	ref, ok, err := n.next.Nearest(sample, nodes)
	switch {
	case err != nil:
		n.failed(rrt.SourceNearest, err)
	case !ok:
		n.stats.NoNearest.Add(1)
		transitionsTotal.WithLabelValues(resultNoNearest).Inc()
	}
	return ref, ok, err
}

type checker[S any] struct {
	next rrt.TransitionChecker[S]
	observer
}

func (c checker[S]) Transition(tc rrt.TransitionContext[S], near rrt.Node[S], sample S) (rrt.Transition[S], error) {
	tr, err := c.next.Transition(tc, near, sample)
	switch {
	case err != nil:
		// Errors from tc.AlreadySeen are already tagged and counted by the
		// seen cache decorator.
		if _, tagged := rrt.SourceOf(err); !tagged {
			c.failed(rrt.SourceTransitionChecker, err)
		}
	case tr.Accepted():
		c.stats.Accepted.Add(1)
		transitionsTotal.WithLabelValues(resultAccepted).Inc()
		c.logger.DebugContext(c.ctx, "RRT transition accepted",
			slog.Int("from", near.Ref.Index()),
			slog.Int("states", len(tr.States())),
		)
	default:
		c.stats.Rejected.Add(1)
		transitionsTotal.WithLabelValues(resultRejected).Inc()
	}
	return tr, err
}

type seenCache[S any] struct {
	next rrt.SeenCache[S]
	observer
}

func (c seenCache[S]) Remember(state S) error {
	err := c.next.Remember(state)
	if err != nil {
		c.failed(rrt.SourceSeenCache, err)
	}
	return err
}

// Reset forwards to the wrapped cache so sessions can still clear it.
func (c seenCache[S]) Reset() {
	if r, ok := c.next.(rrt.SeenCacheResetter); ok {
		r.Reset()
	}
}

func (c seenCache[S]) AlreadySeen(state S, states iter.Seq[S]) (bool, error) {
	seen, err := c.next.AlreadySeen(state, states)
	if err != nil {
		c.failed(rrt.SourceSeenCache, err)
	}
	return seen, err
}
