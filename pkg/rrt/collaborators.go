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

import "iter"

// Sampler produces candidate states.
//
// Called once per planning iteration, after the Limiter check.
type Sampler[S any] interface {
	// Sample returns the next candidate. ok is false when the sampler is
	// exhausted, which ends the run with NoPathExists.
	Sample(tree TreeView[S]) (state S, ok bool, err error)
}

// Limiter reports when the resource budget is spent.
//
// Called once per planning iteration, before sampling.
type Limiter[S any] interface {
	LimitExceeded(tree TreeView[S]) (bool, error)
}

// GoalChecker reports whether a frontier node completes the plan.
//
// Called after root insertion and after every accepted transition, never
// after a rejection.
type GoalChecker[S any] interface {
	GoalReached(node Node[S]) (bool, error)
}

// NearestLocator picks the node closest to a sample.
//
// ok is false when no node is comparable with the sample at all.
type NearestLocator[S any] interface {
	Nearest(sample S, nodes iter.Seq2[NodeRef, S]) (nearest NodeRef, ok bool, err error)
}

// TransitionContext is what a TransitionChecker may consult while deciding.
type TransitionContext[S any] interface {
	// Tree returns a read-only view of the tree being grown.
	Tree() TreeView[S]

	// AlreadySeen reports whether state was incorporated into the tree.
	// Always false when the session has no SeenCache.
	AlreadySeen(state S) (bool, error)
}

// TransitionChecker decides whether the tree may grow from nearest toward
// sample, and by which states.
type TransitionChecker[S any] interface {
	Transition(tc TransitionContext[S], nearest Node[S], sample S) (Transition[S], error)
}

// SeenCache records states incorporated into the tree.
//
// After Remember(s) returns, AlreadySeen(s, ...) must report true. states
// yields the current tree states; strategies that keep no memory of their
// own scan it instead.
type SeenCache[S any] interface {
	Remember(state S) error
	AlreadySeen(state S, states iter.Seq[S]) (bool, error)
}

// SeenCacheResetter is implemented by seen caches that keep memory of their
// own. AddRoot calls Reset before remembering the root, so every run starts
// from an empty cache.
type SeenCacheResetter interface {
	Reset()
}

// Transition is the verdict of a TransitionChecker.
type Transition[S any] struct {
	accepted bool
	states   []S
}

// Reject returns a transition that adds no node.
func Reject[S any]() Transition[S] {
	return Transition[S]{}
}

// Accept returns a transition appending states, in order, as a chain below
// the nearest node. At least one state is required.
func Accept[S any](states ...S) Transition[S] {
	return Transition[S]{accepted: true, states: states}
}

// Accepted reports whether the transition grows the tree.
func (t Transition[S]) Accepted() bool {
	return t.accepted
}

// States returns the states to append. Empty for a rejection.
func (t Transition[S]) States() []S {
	return t.states
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc[S any] func(tree TreeView[S]) (S, bool, error)

// Sample implements Sampler.
func (f SamplerFunc[S]) Sample(tree TreeView[S]) (S, bool, error) {
	return f(tree)
}

// LimiterFunc adapts a function to Limiter.
type LimiterFunc[S any] func(tree TreeView[S]) (bool, error)

// LimitExceeded implements Limiter.
func (f LimiterFunc[S]) LimitExceeded(tree TreeView[S]) (bool, error) {
	return f(tree)
}

// GoalFunc adapts a function to GoalChecker.
type GoalFunc[S any] func(node Node[S]) (bool, error)

// GoalReached implements GoalChecker.
func (f GoalFunc[S]) GoalReached(node Node[S]) (bool, error) {
	return f(node)
}

// TransitionFunc adapts a function to TransitionChecker.
type TransitionFunc[S any] func(tc TransitionContext[S], nearest Node[S], sample S) (Transition[S], error)

// Transition implements TransitionChecker.
func (f TransitionFunc[S]) Transition(tc TransitionContext[S], nearest Node[S], sample S) (Transition[S], error) {
	return f(tc, nearest, sample)
}
