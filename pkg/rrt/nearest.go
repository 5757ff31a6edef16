// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rrt

import (
	"cmp"
	"iter"
)

// DistanceMetric measures how far a sample is from a tree state.
//
// D only needs a strict partial order: Less(a, b) and Less(b, a) may both be
// false for distinct values.
type DistanceMetric[S, D any] interface {
	// Distance returns the distance from a tree state to a sample. ok is
	// false when the distance is undefined for this pair.
	Distance(from, to S) (d D, ok bool, err error)

	// Less reports whether a is strictly closer than b.
	Less(a, b D) bool
}

// MetricLocator is the full-scan NearestLocator.
//
// Every call visits all nodes (O(n)). A node replaces the current best only
// when its distance is strictly Less, so ties and incomparable distances keep
// the node seen first (root first, then insertion order).
type MetricLocator[S, D any] struct {
	metric DistanceMetric[S, D]
}

// NewMetricLocator creates a full-scan locator over metric.
func NewMetricLocator[S, D any](metric DistanceMetric[S, D]) *MetricLocator[S, D] {
	return &MetricLocator[S, D]{metric: metric}
}

// Nearest implements NearestLocator.
func (l *MetricLocator[S, D]) Nearest(sample S, nodes iter.Seq2[NodeRef, S]) (NodeRef, bool, error) {
	var (
		best     NodeRef
		bestDist D
		found    bool
	)
	for ref, state := range nodes {
		d, ok, err := l.metric.Distance(state, sample)
		if err != nil {
			return NodeRef{}, false, err
		}
		if !ok {
			continue
		}
		if !found || l.metric.Less(d, bestDist) {
			best, bestDist, found = ref, d, true
		}
	}
	return best, found, nil
}

// orderedMetric adapts a distance function over a totally ordered type.
type orderedMetric[S any, D cmp.Ordered] struct {
	fn func(from, to S) (D, bool, error)
}

// OrderedMetric adapts fn to DistanceMetric using the natural order of D.
func OrderedMetric[S any, D cmp.Ordered](fn func(from, to S) (D, bool, error)) DistanceMetric[S, D] {
	return orderedMetric[S, D]{fn: fn}
}

func (m orderedMetric[S, D]) Distance(from, to S) (D, bool, error) {
	return m.fn(from, to)
}

func (m orderedMetric[S, D]) Less(a, b D) bool {
	return cmp.Less(a, b)
}
