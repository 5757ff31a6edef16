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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianRRT/pkg/ux"
	"github.com/AleutianAI/AleutianRRT/services/rrt/grid"
	"github.com/AleutianAI/AleutianRRT/services/rrt/mazes"
	"github.com/AleutianAI/AleutianRRT/services/rrt/runner"
)

// mazesCmd browses the built-in catalog. It needs neither config nor the
// journal, so it skips setup.
func (a *app) mazesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mazes [name]",
		Short: "List the built-in mazes, or draw one",
		Long: "List the built-in mazes, or draw one.\n\n" +
			"Pass --maze " + runner.BuiltinPrefix + "<name> to plan and batch to use a built-in maze.",
		Args: cobra.MaximumNArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		level, err := ux.ParseLevel(a.output)
		if err != nil {
			return a.fail(err)
		}
		a.printer = ux.NewPrinter(a.stdout, ux.Resolve(level, a.stdout))
		catalog := mazes.Builtin()

		if len(args) == 1 {
			g, err := catalog.Get(args[0])
			if err != nil {
				return a.fail(err)
			}
			a.printer.Box(args[0], grid.Render(g, nil, a.printer.Styled()))
			return nil
		}

		rows := [][]string{{"NAME", "SIZE", "DIFFICULTY", "DESCRIPTION"}}
		for _, e := range catalog.Entries() {
			g := e.Grid()
			rows = append(rows, []string{
				e.Name,
				fmt.Sprintf("%dx%d", g.Width(), g.Height()),
				string(e.Difficulty),
				e.Description,
			})
		}
		a.printer.Table(rows)
		return nil
	}
	return cmd
}
