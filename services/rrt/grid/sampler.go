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
	"math/rand/v2"

	"github.com/AleutianAI/AleutianRRT/pkg/rrt"
)

// UniformSampler draws cells uniformly over the whole grid, walls
// included. It never exhausts.
//
// Thread Safety: NOT safe for concurrent use.
type UniformSampler struct {
	rng    *rand.Rand
	width  int
	height int
}

var _ rrt.Sampler[Coord] = (*UniformSampler)(nil)

// NewUniformSampler creates a sampler seeded with seed. Equal seeds give
// equal sample sequences.
func NewUniformSampler(g *Grid, seed uint64) *UniformSampler {
	return &UniformSampler{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		width:  g.Width(),
		height: g.Height(),
	}
}

// Sample implements rrt.Sampler.
func (s *UniformSampler) Sample(rrt.TreeView[Coord]) (Coord, bool, error) {
	return Coord{Row: s.rng.IntN(s.height), Col: s.rng.IntN(s.width)}, true, nil
}

// SliceSampler replays a fixed list of cells and then exhausts.
type SliceSampler struct {
	cells []Coord
	next  int
}

var _ rrt.Sampler[Coord] = (*SliceSampler)(nil)

// NewSliceSampler creates a sampler over cells.
func NewSliceSampler(cells ...Coord) *SliceSampler {
	return &SliceSampler{cells: cells}
}

// Sample implements rrt.Sampler.
func (s *SliceSampler) Sample(rrt.TreeView[Coord]) (Coord, bool, error) {
	if s.next >= len(s.cells) {
		return Coord{}, false, nil
	}
	c := s.cells[s.next]
	s.next++
	return c, true, nil
}

// Remaining returns the number of cells not yet replayed.
func (s *SliceSampler) Remaining() int {
	return len(s.cells) - s.next
}
