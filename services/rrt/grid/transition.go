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
	"github.com/AleutianAI/AleutianRRT/pkg/rrt"
)

// Line returns the cells walked from from to to along a row or column,
// excluding from and including to. ok is false when the two cells share
// neither a row nor a column. Equal cells give an empty line.
func Line(from, to Coord) (cells []Coord, ok bool) {
	if from.Row != to.Row && from.Col != to.Col {
		return nil, false
	}
	step := Coord{Row: sign(to.Row - from.Row), Col: sign(to.Col - from.Col)}
	n := abs(to.Row-from.Row) + abs(to.Col-from.Col)
	cells = make([]Coord, 0, n)
	for cur := from; cur != to; {
		cur = Coord{Row: cur.Row + step.Row, Col: cur.Col + step.Col}
		cells = append(cells, cur)
	}
	return cells, true
}

// Distance is the number of steps between two aligned cells. ok is false
// for cells that share neither a row nor a column.
func Distance(from, to Coord) (int, bool, error) {
	if from.Row != to.Row && from.Col != to.Col {
		return 0, false, nil
	}
	return abs(to.Row-from.Row) + abs(to.Col-from.Col), true, nil
}

// Metric returns the aligned Manhattan metric over grid cells.
func Metric() rrt.DistanceMetric[Coord, int] {
	return rrt.OrderedMetric(Distance)
}

// Checker accepts straight segments that cross no wall and no cell already
// in the tree.
//
// The accepted states are every cell of the segment, so the tree path is
// 4-connected. A segment that runs through the finish cell stops there.
type Checker struct {
	grid *Grid
}

var _ rrt.TransitionChecker[Coord] = (*Checker)(nil)

// NewChecker creates a checker for g.
func NewChecker(g *Grid) *Checker {
	return &Checker{grid: g}
}

// Transition implements rrt.TransitionChecker.
func (c *Checker) Transition(tc rrt.TransitionContext[Coord], nearest rrt.Node[Coord], sample Coord) (rrt.Transition[Coord], error) {
	line, ok := Line(nearest.State, sample)
	if !ok || len(line) == 0 {
		return rrt.Reject[Coord](), nil
	}
	for i, cell := range line {
		if !c.grid.Open(cell) {
			return rrt.Reject[Coord](), nil
		}
		seen, err := tc.AlreadySeen(cell)
		if err != nil {
			return rrt.Transition[Coord]{}, err
		}
		if seen {
			return rrt.Reject[Coord](), nil
		}
		if cell == c.grid.finish {
			return rrt.Accept(line[:i+1]...), nil
		}
	}
	return rrt.Accept(line...), nil
}

// Goal returns the goal checker for the finish cell of g.
func Goal(g *Grid) rrt.GoalChecker[Coord] {
	finish := g.Finish()
	return rrt.GoalFunc[Coord](func(node rrt.Node[Coord]) (bool, error) {
		return node.State == finish, nil
	})
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
