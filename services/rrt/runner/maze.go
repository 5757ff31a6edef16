// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runner

import (
	"fmt"
	"os"
	"strings"

	"github.com/AleutianAI/AleutianRRT/services/rrt/grid"
	"github.com/AleutianAI/AleutianRRT/services/rrt/mazes"
)

// BuiltinPrefix selects a catalog maze in place of a file path, as in
// "builtin:spiral".
const BuiltinPrefix = "builtin:"

// LoadMaze reads a maze file. An empty path selects the built-in demo maze.
func LoadMaze(path string) (*grid.Grid, error) {
	if path == "" {
		return grid.DemoMaze(), nil
	}
	if name, ok := strings.CutPrefix(path, BuiltinPrefix); ok {
		return mazes.Builtin().Get(name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read maze %s: %w", path, err)
	}
	g, err := grid.ParseString(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse maze %s: %w", path, err)
	}
	return g, nil
}
