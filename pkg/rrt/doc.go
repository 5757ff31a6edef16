// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rrt provides a generic Rapidly-exploring Random Tree planning engine.
//
// The engine grows a tree of reachable states from a start state toward
// randomly sampled targets until a goal is reached or a budget runs out.
// Everything domain specific (geometry, obstacles, random numbers, rendering)
// is supplied by collaborators:
//
//   - Sampler: produces the next candidate state or reports exhaustion
//   - Limiter: reports when the resource budget is exceeded
//   - GoalChecker: reports whether the frontier node completes the plan
//   - NearestLocator / DistanceMetric: picks the node closest to a sample
//   - TransitionChecker: accepts or rejects growth toward a sample
//   - SeenCache: remembers states already incorporated into the tree
//
// # Tree Store
//
// Tree is an append-only arena of (state, parent) nodes addressed by NodeRef.
// Node 0 is the root and every other node's parent index is strictly smaller
// than its own, so the tree is acyclic by construction and a path is a
// linear walk over parent links.
//
// # Planning Session
//
// NewSession returns the first phase of a session, which models the planning
// protocol as a typestate machine:
//
//	Uninitialized --AddRoot--> RootEstablished --PrepareSample--> ReadyToSample
//	ReadyToSample --Sample--> Sampled --Nearest--> NearestFound
//	NearestFound --NoTransition--> ReadyToSample
//	NearestFound --Transition--> RootEstablished
//	RootEstablished --IntoPath--> []S
//
// Each phase value can be advanced exactly once. Advancing a phase that was
// already consumed fails with ErrStalePhase.
//
// # Driver
//
// Planner.Plan runs a session to completion and returns an Outcome:
// PathPlanned, NoPathExists or LimitReached. Collaborator failures abort the
// run and are returned as *PlanError tagged with the originating Source.
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent use, Planner included. A
// tree, session or planner is owned by exactly one goroutine at a time. The package does not
// log; embedding applications own diagnostics.
package rrt
