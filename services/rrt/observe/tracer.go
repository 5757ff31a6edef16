// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observe attaches tracing, metrics and structured logging to
// planning runs.
package observe

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/AleutianAI/AleutianRRT/pkg/rrt"
)

const rrtInstrumentationName = "aleutian.rrt"

// RunTracer provides OpenTelemetry tracing and metrics for planning runs.
//
// Thread Safety: Safe for concurrent use.
type RunTracer struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	enabled bool

	runs     metric.Int64Counter
	duration metric.Float64Histogram
}

// TracerOption configures a RunTracer.
type TracerOption func(*tracerOptions)

type tracerOptions struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	enabled        bool
}

// WithTracerProvider replaces the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracerOption {
	return func(o *tracerOptions) {
		o.tracerProvider = tp
	}
}

// WithMeterProvider replaces the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) TracerOption {
	return func(o *tracerOptions) {
		o.meterProvider = mp
	}
}

// WithTracing enables or disables spans. Enabled by default.
func WithTracing(enabled bool) TracerOption {
	return func(o *tracerOptions) {
		o.enabled = enabled
	}
}

// NewRunTracer creates a new tracer.
//
// Inputs:
//   - logger: Logger for structured logging (can be nil for slog.Default()).
//   - opts: Provider overrides; the otel globals are used otherwise.
//
// Outputs:
//   - *RunTracer: Tracer instance.
func NewRunTracer(logger *slog.Logger, opts ...TracerOption) *RunTracer {
	if logger == nil {
		logger = slog.Default()
	}
	o := tracerOptions{enabled: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}
	if o.meterProvider == nil {
		o.meterProvider = otel.GetMeterProvider()
	}

	meter := o.meterProvider.Meter(rrtInstrumentationName)
	t := &RunTracer{
		tracer:  o.tracerProvider.Tracer(rrtInstrumentationName),
		logger:  logger,
		enabled: o.enabled,
	}
	var err error
	if t.runs, err = meter.Int64Counter("rrt.runs",
		metric.WithDescription("Planning runs by outcome"),
	); err != nil {
		logger.Warn("rrt.runs counter unavailable", slog.String("error", err.Error()))
	}
	if t.duration, err = meter.Float64Histogram("rrt.run.duration",
		metric.WithDescription("Planning run duration"),
		metric.WithUnit("s"),
	); err != nil {
		logger.Warn("rrt.run.duration histogram unavailable", slog.String("error", err.Error()))
	}
	return t
}

// RunInfo describes a run for its span and log records.
type RunInfo struct {
	RunID  string
	Domain string
	Seed   uint64
	Cache  string
}

// StartRun starts a span for an entire planning run.
//
// Outputs:
//   - context.Context: Context with span.
//   - trace.Span: The created span (a no-op span if tracing is disabled).
func (t *RunTracer) StartRun(ctx context.Context, info RunInfo) (context.Context, trace.Span) {
	t.logger.InfoContext(ctx, "RRT run started",
		slog.String("run_id", info.RunID),
		slog.String("domain", info.Domain),
		slog.Uint64("seed", info.Seed),
		slog.String("cache", info.Cache),
	)

	if !t.enabled {
		return ctx, noop.Span{}
	}
	return t.tracer.Start(ctx, "rrt.run",
		trace.WithAttributes(
			attribute.String("rrt.run_id", info.RunID),
			attribute.String("rrt.domain", info.Domain),
			attribute.Int64("rrt.seed", int64(info.Seed)),
			attribute.String("rrt.cache", info.Cache),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// RunResult summarises a finished run.
type RunResult struct {
	Outcome    string
	Iterations int
	Nodes      int
	PathLength int
	Elapsed    time.Duration
	Stats      StatsSnapshot
}

// EndRun completes the run span and records run metrics.
//
// Inputs:
//   - ctx: Context returned by StartRun.
//   - span: The span to end.
//   - result: The run summary. Outcome is ignored when err is non-nil.
//   - err: Error if the run failed.
func (t *RunTracer) EndRun(ctx context.Context, span trace.Span, result RunResult, err error) {
	outcome := result.Outcome
	if err != nil {
		outcome = outcomeError
	}

	runsTotal.WithLabelValues(outcome).Inc()
	runDuration.Observe(result.Elapsed.Seconds())
	if err == nil {
		runIterations.Observe(float64(result.Iterations))
		treeNodes.Observe(float64(result.Nodes))
	}

	outcomeAttr := attribute.String("rrt.outcome", outcome)
	if t.runs != nil {
		t.runs.Add(ctx, 1, metric.WithAttributes(outcomeAttr))
	}
	if t.duration != nil {
		t.duration.Record(ctx, result.Elapsed.Seconds(), metric.WithAttributes(outcomeAttr))
	}

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if source, ok := rrt.SourceOf(err); ok {
				span.SetAttributes(attribute.String("rrt.error_source", source.String()))
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.SetAttributes(
			outcomeAttr,
			attribute.Int("rrt.result.iterations", result.Iterations),
			attribute.Int("rrt.result.nodes", result.Nodes),
			attribute.Int("rrt.result.path_length", result.PathLength),
			attribute.Int64("rrt.result.accepted", result.Stats.Accepted),
			attribute.Int64("rrt.result.rejected", result.Stats.Rejected),
			attribute.String("rrt.result.elapsed", result.Elapsed.String()),
		)
		span.End()
	}

	attrs := []any{
		slog.String("outcome", outcome),
		slog.Int("iterations", result.Iterations),
		slog.Int("nodes", result.Nodes),
		slog.Int("path_length", result.PathLength),
		slog.Duration("elapsed", result.Elapsed),
	}
	if err != nil {
		t.logger.ErrorContext(ctx, "RRT run failed", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	t.logger.InfoContext(ctx, "RRT run completed", attrs...)
}

// Plan runs p from init inside a traced, instrumented run.
//
// Outputs:
//   - rrt.Outcome[S]: The planner outcome.
//   - RunResult: The summary recorded on the span.
//   - error: The planner error, unchanged.
func Plan[S any](ctx context.Context, t *RunTracer, info RunInfo, p *rrt.Planner[S], init S) (rrt.Outcome[S], RunResult, error) {
	ctx, span := t.StartRun(ctx, info)

	var stats Stats
	instrumented := Instrument(ctx, p, &stats, t.logger)

	start := time.Now()
	out, err := instrumented.Plan(init)
	result := RunResult{
		Outcome:    out.Kind.String(),
		Iterations: out.Iterations,
		Nodes:      out.Nodes,
		PathLength: len(out.Path),
		Elapsed:    time.Since(start),
		Stats:      stats.Snapshot(),
	}

	t.EndRun(ctx, span, result, err)
	return out, result, err
}
