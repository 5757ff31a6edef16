// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianRRT/pkg/validation"
	"github.com/AleutianAI/AleutianRRT/services/rrt/mazes"
)

const corridor = `#########
#  *    #
#       #
### #####
#  @    #
#       #
#########
`

func writeMaze(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "maze.txt")
	require.NoError(t, os.WriteFile(path, []byte(corridor), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(append([]string{"--output", "machine", "--log-level", "error"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

var runIDPattern = regexp.MustCompile(`run_id=(\S+)`)

func TestPlanAndInspectRuns(t *testing.T) {
	maze := writeMaze(t)
	journalDir := t.TempDir()

	out, err := execute(t, "plan", "--maze", maze, "--seed", "4", "--journal-dir", journalDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "outcome=path_planned")
	assert.Contains(t, out, "seed=4")
	assert.Contains(t, out, "###.#####")
	assert.Contains(t, out, "OK: Path of")

	m := runIDPattern.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	runID := m[1]

	out, err = execute(t, "runs", "list", "--journal-dir", journalDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, runID)

	out, err = execute(t, "runs", "show", runID, "--journal-dir", journalDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "outcome=path_planned")
	assert.Contains(t, out, "path=[(1,3)")
}

func TestPlan_RunIDs(t *testing.T) {
	maze := writeMaze(t)
	journalDir := t.TempDir()

	for _, id := range []string{"nightly-1", "nightly-2"} {
		out, err := execute(t, "plan", "--maze", maze, "--run-id", id, "--no-render", "--journal-dir", journalDir)
		require.NoError(t, err, out)
		assert.Contains(t, out, "run_id="+id)
	}

	out, err := execute(t, "runs", "show", "nightly-1", "nightly-2", "--journal-dir", journalDir)
	require.NoError(t, err, out)
	assert.Equal(t, 2, strings.Count(out, "outcome=path_planned"))

	_, err = execute(t, "runs", "show", "nightly-1", "bad/id", "--journal-dir", journalDir)
	assert.ErrorIs(t, err, validation.ErrInvalidRunID)

	_, err = execute(t, "plan", "--maze", maze, "--run-id", "bad id", "--journal-dir", journalDir)
	assert.ErrorIs(t, err, validation.ErrInvalidRunID)
}

func TestMazes(t *testing.T) {
	out, err := execute(t, "mazes")
	require.NoError(t, err, out)
	for _, name := range []string{"demo", "open", "corridor", "spiral", "sealed"} {
		assert.Contains(t, out, name+"\t")
	}
	assert.Contains(t, out, "11x11\thard")

	out, err = execute(t, "mazes", "corridor")
	require.NoError(t, err, out)
	assert.Contains(t, out, "### #####")

	_, err = execute(t, "mazes", "labyrinth")
	assert.ErrorIs(t, err, mazes.ErrUnknownMaze)

	out, err = execute(t, "plan", "--maze", "builtin:open", "--journal=false", "--no-render")
	require.NoError(t, err, out)
	assert.Contains(t, out, "outcome=path_planned")
}

func TestPlan_LimitReached(t *testing.T) {
	out, err := execute(t, "plan", "--journal=false", "--max-iterations", "2", "--time-limit", "0s", "--no-render")
	require.NoError(t, err, out)
	assert.Contains(t, out, "iterations=2")
	assert.Contains(t, out, "budget=iterations")
	assert.Contains(t, out, "WARN: Budget exhausted")
	assert.NotContains(t, out, "Maze:")
}

func TestBatch(t *testing.T) {
	out, err := execute(t, "batch", "--maze", writeMaze(t), "--seeds", "1, 2,3", "--cache", "linear", "--journal=false")
	require.NoError(t, err, out)
	assert.Contains(t, out, "planned=3/3")
	lines := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "\tpath_planned\t") {
			lines++
		}
	}
	assert.Equal(t, 3, lines)
}

func TestBatch_BadSeeds(t *testing.T) {
	_, err := execute(t, "batch", "--seeds", "1,x", "--journal=false")
	assert.ErrorContains(t, err, `invalid seed "x"`)
}

func TestRuns_JournalDisabled(t *testing.T) {
	_, err := execute(t, "runs", "list", "--journal=false")
	assert.ErrorIs(t, err, errJournalDisabled)
}

func TestPlan_BadOutputLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"plan", "--output", "fancy", "--journal=false"})
	err := cmd.Execute()
	assert.ErrorContains(t, err, "unknown output level")
}

func TestSeedList(t *testing.T) {
	got, err := seedList("", 5, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 6, 7}, got)

	got, err = seedList("9,,10", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{9, 10}, got)

	_, err = seedList("", 1, 0)
	assert.Error(t, err)
	_, err = seedList(" , ", 1, 1)
	assert.Error(t, err)
}
