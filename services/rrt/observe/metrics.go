// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package observe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rrt_runs_total",
		Help: "Planning runs by outcome",
	}, []string{"outcome"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rrt_run_duration_seconds",
		Help:    "Planning run duration",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
	})

	runIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rrt_run_iterations",
		Help:    "Samples drawn per planning run",
		Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
	})

	treeNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rrt_tree_nodes",
		Help:    "Tree size at the end of a planning run",
		Buckets: []float64{1, 10, 50, 100, 500, 1000, 10000},
	})

	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rrt_transitions_total",
		Help: "Transition checks by result",
	}, []string{"result"})

	collaboratorErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rrt_collaborator_errors_total",
		Help: "Collaborator errors by source",
	}, []string{"source"})
)

// Transition results recorded in rrt_transitions_total.
const (
	resultAccepted  = "accepted"
	resultRejected  = "rejected"
	resultNoNearest = "no_nearest"
)

// outcomeError is the outcome label of runs that ended with an error.
const outcomeError = "error"
