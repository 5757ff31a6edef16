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
	"bytes"
	"context"
	"errors"
	"iter"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AleutianAI/AleutianRRT/pkg/rrt"
)

func intPlanner(samples ...int) *rrt.Planner[int] {
	return &rrt.Planner[int]{
		Sampler: rrt.SamplerFunc[int](func(rrt.TreeView[int]) (int, bool, error) {
			if len(samples) == 0 {
				return 0, false, nil
			}
			s := samples[0]
			samples = samples[1:]
			return s, true, nil
		}),
		Limiter: rrt.LimiterFunc[int](func(rrt.TreeView[int]) (bool, error) { return false, nil }),
		Goal:    rrt.GoalFunc[int](func(n rrt.Node[int]) (bool, error) { return n.State == 3, nil }),
		Nearest: rrt.NewMetricLocator(rrt.OrderedMetric(func(from, to int) (int, bool, error) {
			if to < 0 {
				return 0, false, nil
			}
			if from > to {
				return from - to, true, nil
			}
			return to - from, true, nil
		})),
		Checker: rrt.TransitionFunc[int](func(_ rrt.TransitionContext[int], _ rrt.Node[int], s int) (rrt.Transition[int], error) {
			if s%2 == 0 {
				return rrt.Reject[int](), nil
			}
			return rrt.Accept(s), nil
		}),
	}
}

func newTestTracer(t *testing.T) (*RunTracer, *tracetest.SpanRecorder, *sdkmetric.ManualReader, *bytes.Buffer) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewRunTracer(logger, WithTracerProvider(tp), WithMeterProvider(mp)), recorder, reader, &logs
}

func TestInstrument_CountsCalls(t *testing.T) {
	var stats Stats
	p := Instrument(context.Background(), intPlanner(2, -1, 1, 4, 3), &stats, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	acceptedBefore := testutil.ToFloat64(transitionsTotal.WithLabelValues(resultAccepted))
	rejectedBefore := testutil.ToFloat64(transitionsTotal.WithLabelValues(resultRejected))

	out, err := p.Plan(0)
	require.NoError(t, err)
	require.Equal(t, rrt.PathPlanned, out.Kind)

	snap := stats.Snapshot()
	assert.Equal(t, int64(5), snap.Samples)
	assert.Equal(t, int64(5), snap.LimitChecks)
	assert.Equal(t, int64(5), snap.NearestCalls)
	assert.Equal(t, int64(1), snap.NoNearest)
	assert.Equal(t, int64(2), snap.Accepted)
	assert.Equal(t, int64(2), snap.Rejected)
	assert.Equal(t, int64(3), snap.GoalChecks)

	assert.Equal(t, 2.0, testutil.ToFloat64(transitionsTotal.WithLabelValues(resultAccepted))-acceptedBefore)
	assert.Equal(t, 2.0, testutil.ToFloat64(transitionsTotal.WithLabelValues(resultRejected))-rejectedBefore)
}

func TestInstrument_KeepsErrorTags(t *testing.T) {
	boom := errors.New("boom")
	p := intPlanner(1)
	p.Goal = rrt.GoalFunc[int](func(rrt.Node[int]) (bool, error) { return false, boom })

	var logs bytes.Buffer
	before := testutil.ToFloat64(collaboratorErrors.WithLabelValues("goal_checker"))

	_, err := Instrument(context.Background(), p, nil, slog.New(slog.NewJSONHandler(&logs, nil))).Plan(0)
	require.ErrorIs(t, err, boom)
	source, ok := rrt.SourceOf(err)
	require.True(t, ok)
	assert.Equal(t, rrt.SourceGoalChecker, source)

	assert.Equal(t, 1.0, testutil.ToFloat64(collaboratorErrors.WithLabelValues("goal_checker"))-before)
	assert.Contains(t, logs.String(), `"source":"goal_checker"`)
}

// brokenCache remembers states but cannot answer lookups.
type brokenCache struct {
	err    error
	resets int
}

func (c *brokenCache) Remember(int) error { return nil }

func (c *brokenCache) AlreadySeen(int, iter.Seq[int]) (bool, error) { return false, c.err }

func (c *brokenCache) Reset() { c.resets++ }

func TestInstrument_SeenCacheErrorCountedOnce(t *testing.T) {
	boom := errors.New("cache down")
	cache := &brokenCache{err: boom}
	p := intPlanner(1)
	p.SeenCache = cache
	p.Checker = rrt.TransitionFunc[int](func(tc rrt.TransitionContext[int], _ rrt.Node[int], s int) (rrt.Transition[int], error) {
		if _, err := tc.AlreadySeen(s); err != nil {
			return rrt.Reject[int](), err
		}
		return rrt.Accept(s), nil
	})

	cacheBefore := testutil.ToFloat64(collaboratorErrors.WithLabelValues("seen_cache"))
	checkerBefore := testutil.ToFloat64(collaboratorErrors.WithLabelValues("transition_checker"))

	_, err := Instrument(context.Background(), p, nil, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))).Plan(0)
	require.ErrorIs(t, err, boom)
	source, ok := rrt.SourceOf(err)
	require.True(t, ok)
	assert.Equal(t, rrt.SourceSeenCache, source)

	assert.Equal(t, 1.0, testutil.ToFloat64(collaboratorErrors.WithLabelValues("seen_cache"))-cacheBefore)
	assert.Zero(t, testutil.ToFloat64(collaboratorErrors.WithLabelValues("transition_checker"))-checkerBefore)
	assert.Equal(t, 1, cache.resets, "instrumented cache still reset by the session")
}

func TestPlan_RecordsSpanAndMetrics(t *testing.T) {
	tracer, recorder, reader, logs := newTestTracer(t)
	before := testutil.ToFloat64(runsTotal.WithLabelValues("path_planned"))

	out, result, err := Plan(context.Background(), tracer, RunInfo{RunID: "run-1", Domain: "int"}, intPlanner(1, 3), 0)
	require.NoError(t, err)
	assert.Equal(t, rrt.PathPlanned, out.Kind)
	assert.Equal(t, "path_planned", result.Outcome)
	assert.Equal(t, 3, result.PathLength)
	assert.Equal(t, int64(2), result.Stats.Accepted)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "rrt.run", span.Name())
	assert.Equal(t, codes.Ok, span.Status().Code)
	attrs := map[string]any{}
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "run-1", attrs["rrt.run_id"])
	assert.Equal(t, "path_planned", attrs["rrt.outcome"])
	assert.Equal(t, int64(3), attrs["rrt.result.path_length"])

	assert.Equal(t, 1.0, testutil.ToFloat64(runsTotal.WithLabelValues("path_planned"))-before)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["rrt.runs"])
	assert.True(t, names["rrt.run.duration"])

	assert.Contains(t, logs.String(), "RRT run started")
	assert.Contains(t, logs.String(), "RRT run completed")
}

func TestPlan_ErrorSpan(t *testing.T) {
	tracer, recorder, _, logs := newTestTracer(t)
	boom := errors.New("boom")
	p := intPlanner(1)
	p.Sampler = rrt.SamplerFunc[int](func(rrt.TreeView[int]) (int, bool, error) { return 0, false, boom })

	_, result, err := Plan(context.Background(), tracer, RunInfo{RunID: "run-2"}, p, 0)
	require.ErrorIs(t, err, boom)
	assert.Zero(t, result.PathLength)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	var source string
	for _, kv := range spans[0].Attributes() {
		if kv.Key == "rrt.error_source" {
			source = kv.Value.AsString()
		}
	}
	assert.Equal(t, "sampler", source)
	assert.Contains(t, logs.String(), "RRT run failed")
}

func TestRunTracer_Disabled(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := NewRunTracer(nil, WithTracerProvider(tp), WithTracing(false))

	_, _, err := Plan(context.Background(), tracer, RunInfo{RunID: "quiet"}, intPlanner(3), 0)
	require.NoError(t, err)
	assert.Empty(t, recorder.Ended())
}
