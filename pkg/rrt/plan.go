// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rrt

import "fmt"

// OutcomeKind is the terminal status of a successful run.
type OutcomeKind int

const (
	// PathPlanned means the goal was reached; Outcome.Path is set.
	PathPlanned OutcomeKind = iota + 1

	// NoPathExists means the sampler was exhausted.
	NoPathExists

	// LimitReached means the limiter reported its budget spent.
	LimitReached
)

// String returns the string representation of the kind.
func (k OutcomeKind) String() string {
	switch k {
	case PathPlanned:
		return "path_planned"
	case NoPathExists:
		return "no_path_exists"
	case LimitReached:
		return "limit_reached"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the result of a run that ended without error.
type Outcome[S any] struct {
	Kind OutcomeKind

	// Path holds the states from the initial state to the goal state.
	// Only set for PathPlanned.
	Path []S

	// Iterations is the number of samples requested from the sampler.
	Iterations int

	// Nodes is the size of the tree when the run ended.
	Nodes int
}

// String returns a short summary of the outcome.
func (o Outcome[S]) String() string {
	if o.Kind == PathPlanned {
		return fmt.Sprintf("%s (path=%d, iterations=%d, nodes=%d)", o.Kind, len(o.Path), o.Iterations, o.Nodes)
	}
	return fmt.Sprintf("%s (iterations=%d, nodes=%d)", o.Kind, o.Iterations, o.Nodes)
}

// Planner wires the collaborators of one planning problem.
//
// A Planner holds no run state of its own and can run any number of
// sequential Plan calls: each run starts a fresh tree and resets a
// SeenCache that implements SeenCacheResetter. Collaborators such as
// samplers, budgets and caches carry per-run state, so a Planner must not
// be used by concurrent Plan calls; build one per goroutine.
// SeenCache is optional; all other fields are required.
type Planner[S any] struct {
	Sampler   Sampler[S]
	Limiter   Limiter[S]
	Goal      GoalChecker[S]
	Nearest   NearestLocator[S]
	Checker   TransitionChecker[S]
	SeenCache SeenCache[S]
}

func (p *Planner[S]) validate() error {
	switch {
	case p.Sampler == nil:
		return fmt.Errorf("%w: sampler", ErrMissingCollaborator)
	case p.Limiter == nil:
		return fmt.Errorf("%w: limiter", ErrMissingCollaborator)
	case p.Goal == nil:
		return fmt.Errorf("%w: goal checker", ErrMissingCollaborator)
	case p.Nearest == nil:
		return fmt.Errorf("%w: nearest locator", ErrMissingCollaborator)
	case p.Checker == nil:
		return fmt.Errorf("%w: transition checker", ErrMissingCollaborator)
	}
	return nil
}

// Plan grows a tree from init until the goal is reached, the sampler is
// exhausted or the limiter reports its budget spent.
//
// Description:
//
//	The root is checked against the goal first. Each iteration then checks
//	the limiter, draws a sample, locates the nearest node and asks the
//	transition checker. Rejected samples and samples with no comparable
//	node add nothing and the loop resamples. The goal checker only sees
//	the frontier node of an accepted transition.
//
// Outputs:
//
//	Outcome[S] - The terminal status. Never returned together with an error.
//	error - The first collaborator error, as a *PlanError. Non-nil aborts the
//	run with no partial result.
func (p *Planner[S]) Plan(init S) (Outcome[S], error) {
	if err := p.validate(); err != nil {
		return Outcome[S]{}, err
	}

	opts := []SessionOption[S]{}
	if p.SeenCache != nil {
		opts = append(opts, WithSeenCache(p.SeenCache))
	}

	node, err := NewSession(opts...).AddRoot(init)
	if err != nil {
		return Outcome[S]{}, err
	}

	var iterations int
	for {
		done, err := p.Goal.GoalReached(node.Node())
		if err != nil {
			return Outcome[S]{}, tag(SourceGoalChecker, err)
		}
		if done {
			nodes := node.Tree().Len()
			path, err := node.IntoPath()
			if err != nil {
				return Outcome[S]{}, err
			}
			return Outcome[S]{Kind: PathPlanned, Path: path, Iterations: iterations, Nodes: nodes}, nil
		}

		ready, err := node.PrepareSample()
		if err != nil {
			return Outcome[S]{}, err
		}

		// Sample until a transition is accepted.
		for {
			exceeded, err := p.Limiter.LimitExceeded(ready.Tree())
			if err != nil {
				return Outcome[S]{}, tag(SourceLimiter, err)
			}
			if exceeded {
				return Outcome[S]{Kind: LimitReached, Iterations: iterations, Nodes: ready.Tree().Len()}, nil
			}
			iterations++

			sampled, ok, err := ready.Sample(p.Sampler)
			if err != nil {
				return Outcome[S]{}, err
			}
			if !ok {
				return Outcome[S]{Kind: NoPathExists, Iterations: iterations, Nodes: ready.Tree().Len()}, nil
			}

			found, err := sampled.Nearest(p.Nearest)
			if err != nil {
				return Outcome[S]{}, err
			}
			if !found.Found() {
				if ready, err = found.NoTransition(); err != nil {
					return Outcome[S]{}, err
				}
				continue
			}

			step, err := found.Transition(p.Checker)
			if err != nil {
				return Outcome[S]{}, err
			}
			if step.Accepted {
				node = step.Grown
				break
			}
			ready = step.Rejected
		}
	}
}
