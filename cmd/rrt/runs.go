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
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianRRT/pkg/validation"
	"github.com/AleutianAI/AleutianRRT/services/rrt/journal"
)

func (a *app) runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the run journal",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled runs, newest first",
		Args:  cobra.NoArgs,
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs (0 for all)")
	listCmd.RunE = a.command(true, func(cmd *cobra.Command, _ []string) error {
		if a.journal == nil {
			return errJournalDisabled
		}
		runs, err := a.journal.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			a.printer.Warning("No runs recorded")
			return nil
		}
		rows := [][]string{{"RUN", "CREATED", "SEED", "CACHE", "OUTCOME", "ITERATIONS", "PATH"}}
		for _, r := range runs {
			rows = append(rows, []string{
				r.ID,
				r.CreatedAt.Local().Format(time.DateTime),
				strconv.FormatUint(r.Seed, 10),
				r.Cache,
				r.Outcome,
				strconv.Itoa(r.Iterations),
				strconv.Itoa(len(r.Path)),
			})
		}
		a.printer.Table(rows)
		return nil
	})

	showCmd := &cobra.Command{
		Use:   "show <run-id>...",
		Short: "Show journaled runs",
		Args:  cobra.MinimumNArgs(1),
	}
	showCmd.RunE = a.command(true, func(cmd *cobra.Command, args []string) error {
		if a.journal == nil {
			return errJournalDisabled
		}
		if err := validation.ValidateRunIDs(args); err != nil {
			return err
		}
		for _, id := range args {
			r, err := a.journal.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			a.showRun(r)
		}
		return nil
	})

	cmd.AddCommand(listCmd, showCmd)
	return cmd
}

func (a *app) showRun(r journal.Record) {
	p := a.printer
	p.Title("RRT run " + r.ID)
	p.Field("created", r.CreatedAt.Local().Format(time.RFC3339))
	p.Field("outcome", r.Outcome)
	if r.Error != "" {
		p.Field("error", fmt.Sprintf("%s (%s)", r.Error, r.ErrorSource))
	}
	p.Field("seed", r.Seed)
	p.Field("cache", r.Cache)
	p.Field("maze", r.MazeHash)
	p.Field("iterations", r.Iterations)
	p.Field("nodes", r.Nodes)
	p.Field("accepted", r.Stats.Accepted)
	p.Field("rejected", r.Stats.Rejected)
	p.Field("elapsed", r.Elapsed)
	if len(r.Path) > 0 {
		p.Field("path", fmt.Sprint(r.Path))
	}
}

var errJournalDisabled = errors.New("run journal is disabled (set journal.enabled or pass --journal)")
