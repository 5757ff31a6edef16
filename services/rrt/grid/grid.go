// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package grid is the rectangular maze domain for the RRT engine.
//
// States are grid cells. The tree only grows along straight row or column
// segments: a sample is comparable with a node when both share a row or a
// column, and a segment is accepted when it crosses no wall and no cell the
// tree already holds.
//
// Maze text uses '#' for walls, '*' for the start cell and '@' for the
// finish cell. Every other byte is open floor.
package grid

import (
	"errors"
	"fmt"
	"iter"
	"strings"
)

// Maze markers.
const (
	Wall   = '#'
	Start  = '*'
	Finish = '@'
)

// Parse errors.
var (
	// ErrEmptyGrid is returned for a maze without rows or columns.
	ErrEmptyGrid = errors.New("grid is empty")

	// ErrRaggedRows is returned when rows differ in length.
	ErrRaggedRows = errors.New("grid rows differ in length")

	// ErrMissingMarker is returned when the start or finish marker is absent.
	ErrMissingMarker = errors.New("grid marker missing")

	// ErrDuplicateMarker is returned when a marker appears more than once.
	ErrDuplicateMarker = errors.New("grid marker appears more than once")
)

// Coord is a grid cell, row first.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// String returns "(row,col)".
func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Grid is an immutable rectangular maze.
//
// Thread Safety: Safe for concurrent use.
type Grid struct {
	cells  [][]byte
	width  int
	height int
	start  Coord
	finish Coord
}

// Parse builds a grid from rows of maze text.
//
// Outputs:
//   - *Grid: The parsed grid
//   - error: ErrEmptyGrid, ErrRaggedRows, ErrMissingMarker or
//     ErrDuplicateMarker, wrapped with the offending position
func Parse(rows []string) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyGrid
	}

	g := &Grid{
		cells:  make([][]byte, len(rows)),
		width:  len(rows[0]),
		height: len(rows),
	}
	var haveStart, haveFinish bool
	for r, row := range rows {
		if len(row) != g.width {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedRows, r, len(row), g.width)
		}
		g.cells[r] = []byte(row)
		for c := 0; c < len(row); c++ {
			switch row[c] {
			case Start:
				if haveStart {
					return nil, fmt.Errorf("%w: %q at %v", ErrDuplicateMarker, Start, Coord{r, c})
				}
				g.start, haveStart = Coord{r, c}, true
			case Finish:
				if haveFinish {
					return nil, fmt.Errorf("%w: %q at %v", ErrDuplicateMarker, Finish, Coord{r, c})
				}
				g.finish, haveFinish = Coord{r, c}, true
			}
		}
	}
	if !haveStart {
		return nil, fmt.Errorf("%w: %q", ErrMissingMarker, Start)
	}
	if !haveFinish {
		return nil, fmt.Errorf("%w: %q", ErrMissingMarker, Finish)
	}
	return g, nil
}

// ParseString parses newline separated maze text. Blank leading and
// trailing lines are ignored.
func ParseString(text string) (*Grid, error) {
	text = strings.Trim(text, "\r\n")
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	return Parse(lines)
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Start returns the start cell.
func (g *Grid) Start() Coord { return g.start }

// Finish returns the finish cell.
func (g *Grid) Finish() Coord { return g.finish }

// InBounds reports whether c lies on the grid.
func (g *Grid) InBounds(c Coord) bool {
	return c.Row >= 0 && c.Row < g.height && c.Col >= 0 && c.Col < g.width
}

// Open reports whether c is on the grid and not a wall.
func (g *Grid) Open(c Coord) bool {
	return g.InBounds(c) && g.cells[c.Row][c.Col] != Wall
}

// Cells yields every cell, row by row.
func (g *Grid) Cells() iter.Seq[Coord] {
	return func(yield func(Coord) bool) {
		for r := 0; r < g.height; r++ {
			for c := 0; c < g.width; c++ {
				if !yield(Coord{r, c}) {
					return
				}
			}
		}
	}
}

// Rows returns the maze text.
func (g *Grid) Rows() []string {
	rows := make([]string, g.height)
	for r, row := range g.cells {
		rows[r] = string(row)
	}
	return rows
}

// String returns the maze text, one row per line.
func (g *Grid) String() string {
	return strings.Join(g.Rows(), "\n")
}

// demoMaze is the 15x15 maze the engine ships with. Start (1,3) and finish
// (8,2) sit in different rooms joined by the gap in row 7.
var demoMaze = []string{
	"###############",
	"#  *   #      #",
	"#      #      #",
	"#      #      #",
	"#      #      #",
	"#             #",
	"#      #      #",
	"############ ##",
	"# @    #      #",
	"#      #      #",
	"#      #      #",
	"#      #      #",
	"#      #      #",
	"#             #",
	"###############",
}

// DemoMaze returns the built-in 15x15 maze.
func DemoMaze() *Grid {
	g, err := Parse(demoMaze)
	if err != nil {
		panic(fmt.Sprintf("grid: demo maze: %v", err))
	}
	return g
}
