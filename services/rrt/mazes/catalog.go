// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package mazes holds the catalog of built-in mazes compiled into the
// binary.
//
// The catalog is YAML embedded at build time, so the mazes travel with the
// executable and cannot drift from the version that was tested.
package mazes

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianRRT/services/rrt/grid"
)

//go:embed catalog.yaml
var catalogYAML []byte

// ErrUnknownMaze is returned by Get for names not in the catalog.
var ErrUnknownMaze = errors.New("unknown maze")

// Difficulty grades a maze for humans; the planner ignores it.
type Difficulty string

const (
	Easy       Difficulty = "easy"
	Medium     Difficulty = "medium"
	Hard       Difficulty = "hard"
	Unsolvable Difficulty = "unsolvable"
)

// UnmarshalYAML rejects unknown difficulty names.
func (d *Difficulty) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch v := Difficulty(s); v {
	case Easy, Medium, Hard, Unsolvable:
		*d = v
		return nil
	default:
		return fmt.Errorf("invalid difficulty %q at line %d", s, value.Line)
	}
}

// Entry is one catalog maze.
type Entry struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Difficulty  Difficulty `yaml:"difficulty"`
	Rows        string     `yaml:"rows"`

	grid *grid.Grid
}

// Grid returns the parsed maze. Grids are read-only, so the same value is
// shared by every caller.
func (e Entry) Grid() *grid.Grid {
	return e.grid
}

// Catalog is an immutable set of named mazes.
//
// Thread Safety: Safe for concurrent use.
type Catalog struct {
	entries []Entry
	byName  map[string]int
}

type catalogFile struct {
	Mazes []Entry `yaml:"mazes"`
}

// Load parses a catalog document. Every maze must parse and names must be
// unique and non-empty.
func Load(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal maze catalog: %w", err)
	}

	c := &Catalog{byName: make(map[string]int, len(file.Mazes))}
	for _, e := range file.Mazes {
		if e.Name == "" {
			return nil, fmt.Errorf("maze %d has no name", len(c.entries))
		}
		if _, dup := c.byName[e.Name]; dup {
			return nil, fmt.Errorf("duplicate maze %q", e.Name)
		}
		g, err := grid.ParseString(e.Rows)
		if err != nil {
			return nil, fmt.Errorf("maze %q: %w", e.Name, err)
		}
		e.grid = g
		c.byName[e.Name] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

var builtin = sync.OnceValue(func() *Catalog {
	c, err := Load(catalogYAML)
	if err != nil {
		panic(fmt.Sprintf("mazes: embedded catalog: %v", err))
	}
	return c
})

// Builtin returns the embedded catalog.
func Builtin() *Catalog {
	return builtin()
}

// Get returns the named maze.
func (c *Catalog) Get(name string) (*grid.Grid, error) {
	i, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %v)", ErrUnknownMaze, name, c.Names())
	}
	return c.entries[i].grid, nil
}

// Entries returns the mazes in catalog order.
func (c *Catalog) Entries() []Entry {
	return slices.Clone(c.entries)
}

// Names returns the maze names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		names = append(names, e.Name)
	}
	slices.Sort(names)
	return names
}
