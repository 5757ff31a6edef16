// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package seencache provides the two rrt.SeenCache strategies.
//
// Linear keeps no memory of its own and scans the live tree states on every
// query. Hashed keeps a set of remembered states. Both answer AlreadySeen(s)
// with true once Remember(s) has returned, so they are interchangeable.
package seencache

import (
	"iter"

	"github.com/AleutianAI/AleutianRRT/pkg/rrt"
)

var (
	_ rrt.SeenCache[int] = (*Linear[int])(nil)
	_ rrt.SeenCache[int] = (*Hashed[int])(nil)

	_ rrt.SeenCacheResetter = (*Hashed[int])(nil)
)

// Linear answers AlreadySeen by scanning the tree states.
//
// O(n) per query, no extra memory. Every state the session remembers is
// appended to the tree first, so the scan already sees it.
type Linear[S any] struct {
	equal func(a, b S) bool
}

// NewLinear creates a Linear cache comparing states with ==.
func NewLinear[S comparable]() *Linear[S] {
	return &Linear[S]{equal: func(a, b S) bool { return a == b }}
}

// NewLinearFunc creates a Linear cache comparing states with equal.
func NewLinearFunc[S any](equal func(a, b S) bool) *Linear[S] {
	return &Linear[S]{equal: equal}
}

// Remember is a no-op; the tree itself is the memory.
func (c *Linear[S]) Remember(S) error {
	return nil
}

// AlreadySeen reports whether states yields a state equal to state.
func (c *Linear[S]) AlreadySeen(state S, states iter.Seq[S]) (bool, error) {
	for s := range states {
		if c.equal(s, state) {
			return true, nil
		}
	}
	return false, nil
}

// Hashed answers AlreadySeen from a set of remembered states.
//
// O(1) average per query. The states argument of AlreadySeen is ignored.
//
// Thread Safety: NOT safe for concurrent use.
type Hashed[S comparable] struct {
	seen map[S]struct{}
}

// NewHashed creates an empty Hashed cache.
func NewHashed[S comparable]() *Hashed[S] {
	return &Hashed[S]{seen: make(map[S]struct{})}
}

// Remember adds state to the set. Remembering twice is harmless.
func (c *Hashed[S]) Remember(state S) error {
	if c.seen == nil {
		c.seen = make(map[S]struct{})
	}
	c.seen[state] = struct{}{}
	return nil
}

// AlreadySeen reports whether state was remembered.
func (c *Hashed[S]) AlreadySeen(state S, _ iter.Seq[S]) (bool, error) {
	_, ok := c.seen[state]
	return ok, nil
}

// Len returns the number of distinct remembered states.
func (c *Hashed[S]) Len() int {
	return len(c.seen)
}

// Reset forgets every remembered state. Sessions call it when a run starts.
func (c *Hashed[S]) Reset() {
	clear(c.seen)
}
