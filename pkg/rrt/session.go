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

// session is the state shared by every phase value of one planning session.
//
// epoch identifies the single live phase. Advancing a phase bumps epoch, so
// any copy of an already advanced phase no longer matches and is rejected.
type session[S any] struct {
	tree  *Tree[S]
	cache SeenCache[S]
	epoch uint64
	ended bool
}

// phase is embedded in every phase type.
type phase[S any] struct {
	s     *session[S]
	epoch uint64
}

// claim consumes the phase. It fails for zero, stale or ended phases.
func (p phase[S]) claim() (*session[S], error) {
	if p.s == nil || p.s.ended || p.s.epoch != p.epoch {
		return nil, &PlanError{Source: SourceTreeStore, Err: ErrStalePhase}
	}
	p.s.epoch++
	return p.s, nil
}

// Tree returns a read-only view of the session's tree.
//
// Reading through a consumed phase is allowed; only advancing it is not.
func (p phase[S]) Tree() TreeView[S] {
	if p.s == nil {
		return NewTree[S]().View()
	}
	return p.s.tree.View()
}

func (s *session[S]) current() phase[S] {
	return phase[S]{s: s, epoch: s.epoch}
}

// SessionOption configures a planning session.
type SessionOption[S any] func(*session[S])

// WithSeenCache makes the session remember every incorporated state in cache
// and answer TransitionContext.AlreadySeen from it.
func WithSeenCache[S any](cache SeenCache[S]) SessionOption[S] {
	return func(s *session[S]) {
		s.cache = cache
	}
}

// WithTree makes the session grow tree instead of a fresh one. The tree is
// reset by AddRoot and must not be used elsewhere until the session ends.
func WithTree[S any](tree *Tree[S]) SessionOption[S] {
	return func(s *session[S]) {
		if tree != nil {
			s.tree = tree
		}
	}
}

// Uninitialized is the first phase of a session: no root yet.
type Uninitialized[S any] struct {
	phase[S]
}

// RootEstablished holds the tree and its current frontier node.
type RootEstablished[S any] struct {
	phase[S]
	node Node[S]
}

// ReadyToSample is waiting for the next sample.
type ReadyToSample[S any] struct {
	phase[S]
}

// Sampled holds a candidate state.
type Sampled[S any] struct {
	phase[S]
	sample S
}

// NearestFound holds the candidate and the node closest to it.
type NearestFound[S any] struct {
	phase[S]
	sample  S
	nearest Node[S]
	found   bool
}

// TransitionOutcome is the result of NearestFound.Transition.
//
// When Accepted is true Grown is the live phase, otherwise Rejected is.
// The other field is a zero phase and cannot be advanced.
type TransitionOutcome[S any] struct {
	Accepted bool
	Grown    RootEstablished[S]
	Rejected ReadyToSample[S]
}

// NewSession starts a planning session.
func NewSession[S any](opts ...SessionOption[S]) Uninitialized[S] {
	s := &session[S]{}
	for _, opt := range opts {
		opt(s)
	}
	if s.tree == nil {
		s.tree = NewTree[S]()
	}
	return Uninitialized[S]{phase: s.current()}
}

// AddRoot resets the tree and, when it implements SeenCacheResetter, the
// seen cache. It then inserts state as the root and makes it the frontier
// node.
func (p Uninitialized[S]) AddRoot(state S) (RootEstablished[S], error) {
	s, err := p.claim()
	if err != nil {
		return RootEstablished[S]{}, err
	}
	ref := s.tree.CreateRoot(state)
	if r, ok := s.cache.(SeenCacheResetter); ok {
		r.Reset()
	}
	if s.cache != nil {
		if err := s.cache.Remember(state); err != nil {
			s.ended = true
			return RootEstablished[S]{}, tag(SourceSeenCache, err)
		}
	}
	return RootEstablished[S]{phase: s.current(), node: Node[S]{Ref: ref, State: state}}, nil
}

// Node returns the frontier node: the root, or the last node appended by
// the most recent accepted transition.
func (p RootEstablished[S]) Node() Node[S] {
	return p.node
}

// PrepareSample starts a new sampling round.
func (p RootEstablished[S]) PrepareSample() (ReadyToSample[S], error) {
	s, err := p.claim()
	if err != nil {
		return ReadyToSample[S]{}, err
	}
	return ReadyToSample[S]{phase: s.current()}, nil
}

// Path returns the states from the root to the frontier node without ending
// the session or advancing the phase.
func (p RootEstablished[S]) Path() ([]S, error) {
	if p.s == nil {
		return nil, &PlanError{Source: SourceTreeStore, Err: ErrStalePhase}
	}
	path, err := p.s.tree.Path(p.node.Ref)
	return path, tag(SourceTreeStore, err)
}

// IntoPath ends the session and returns the states from the root to the
// frontier node. The tree's storage is released.
//
// The session has no notion of a goal; callers only do this once their own
// goal check passed.
func (p RootEstablished[S]) IntoPath() ([]S, error) {
	s, err := p.claim()
	if err != nil {
		return nil, err
	}
	s.ended = true
	path, err := s.tree.IntoPath(p.node.Ref)
	if err != nil {
		return nil, tag(SourceTreeStore, err)
	}
	return path, nil
}

// Sample asks sampler for a candidate. ok is false when the sampler is
// exhausted; the session ends in that case.
func (p ReadyToSample[S]) Sample(sampler Sampler[S]) (Sampled[S], bool, error) {
	s, err := p.claim()
	if err != nil {
		return Sampled[S]{}, false, err
	}
	state, ok, err := sampler.Sample(s.tree.View())
	if err != nil {
		s.ended = true
		return Sampled[S]{}, false, tag(SourceSampler, err)
	}
	if !ok {
		s.ended = true
		return Sampled[S]{}, false, nil
	}
	return Sampled[S]{phase: s.current(), sample: state}, true, nil
}

// Sample returns the candidate state.
func (p Sampled[S]) Sample() S {
	return p.sample
}

// Nearest locates the node closest to the candidate. When no node is
// comparable with it, the returned phase reports Found() == false and can
// only be discarded.
func (p Sampled[S]) Nearest(locator NearestLocator[S]) (NearestFound[S], error) {
	s, err := p.claim()
	if err != nil {
		return NearestFound[S]{}, err
	}
	ref, ok, err := locator.Nearest(p.sample, s.tree.All())
	if err != nil {
		s.ended = true
		return NearestFound[S]{}, tag(SourceNearest, err)
	}
	next := NearestFound[S]{phase: s.current(), sample: p.sample, found: ok}
	if ok {
		state, err := s.tree.State(ref)
		if err != nil {
			s.ended = true
			return NearestFound[S]{}, tag(SourceTreeStore, err)
		}
		next.nearest = Node[S]{Ref: ref, State: state}
	}
	return next, nil
}

// Found reports whether a comparable node was located.
func (p NearestFound[S]) Found() bool {
	return p.found
}

// Sample returns the candidate state.
func (p NearestFound[S]) Sample() S {
	return p.sample
}

// Nearest returns the located node. Only meaningful when Found is true.
func (p NearestFound[S]) Nearest() Node[S] {
	return p.nearest
}

// NoTransition discards the candidate.
func (p NearestFound[S]) NoTransition() (ReadyToSample[S], error) {
	s, err := p.claim()
	if err != nil {
		return ReadyToSample[S]{}, err
	}
	return ReadyToSample[S]{phase: s.current()}, nil
}

// Transition asks checker whether the tree may grow from the nearest node
// toward the candidate. Accepted states are appended as a chain, each one
// remembered in the seen cache before the next is appended, and the last of
// them becomes the frontier node.
//
// A phase without a comparable node is rejected without consulting checker.
func (p NearestFound[S]) Transition(checker TransitionChecker[S]) (TransitionOutcome[S], error) {
	s, err := p.claim()
	if err != nil {
		return TransitionOutcome[S]{}, err
	}
	if !p.found {
		return TransitionOutcome[S]{Rejected: ReadyToSample[S]{phase: s.current()}}, nil
	}

	verdict, err := checker.Transition(transitionContext[S]{s: s}, p.nearest, p.sample)
	if err != nil {
		s.ended = true
		return TransitionOutcome[S]{}, tag(SourceTransitionChecker, err)
	}
	if !verdict.Accepted() {
		return TransitionOutcome[S]{Rejected: ReadyToSample[S]{phase: s.current()}}, nil
	}
	states := verdict.States()
	if len(states) == 0 {
		s.ended = true
		return TransitionOutcome[S]{}, &PlanError{Source: SourceTransitionChecker, Err: ErrEmptyTransition}
	}

	ref := p.nearest.Ref
	for _, state := range states {
		ref, err = s.tree.Expand(ref, state)
		if err != nil {
			s.ended = true
			return TransitionOutcome[S]{}, tag(SourceTreeStore, err)
		}
		if s.cache != nil {
			if err := s.cache.Remember(state); err != nil {
				s.ended = true
				return TransitionOutcome[S]{}, tag(SourceSeenCache, err)
			}
		}
	}

	grown := RootEstablished[S]{
		phase: s.current(),
		node:  Node[S]{Ref: ref, State: states[len(states)-1]},
	}
	return TransitionOutcome[S]{Accepted: true, Grown: grown}, nil
}

// transitionContext is handed to TransitionCheckers.
type transitionContext[S any] struct {
	s *session[S]
}

func (c transitionContext[S]) Tree() TreeView[S] {
	return c.s.tree.View()
}

func (c transitionContext[S]) AlreadySeen(state S) (bool, error) {
	if c.s.cache == nil {
		return false, nil
	}
	seen, err := c.s.cache.AlreadySeen(state, c.s.tree.States())
	if err != nil {
		return false, tag(SourceSeenCache, err)
	}
	return seen, nil
}
