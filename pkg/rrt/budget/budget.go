// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package budget provides the resource limiter for planning runs.
package budget

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AleutianAI/AleutianRRT/pkg/rrt"
)

// Limit errors returned by Budget.Check.
var (
	// ErrBudgetExhausted is returned once any limit has fired.
	ErrBudgetExhausted = errors.New("budget exhausted")

	// ErrIterationLimitExceeded is returned when MaxIterations samples were drawn.
	ErrIterationLimitExceeded = errors.New("iteration limit exceeded")

	// ErrNodeLimitExceeded is returned when the tree holds MaxNodes nodes.
	ErrNodeLimitExceeded = errors.New("node limit exceeded")

	// ErrTimeLimitExceeded is returned when TimeLimit elapsed since the first check.
	ErrTimeLimitExceeded = errors.New("time limit exceeded")
)

// Config contains the limits of one planning run. Zero disables a limit.
type Config struct {
	MaxIterations int           `yaml:"max_iterations" json:"max_iterations" validate:"gte=0"`
	MaxNodes      int           `yaml:"max_nodes" json:"max_nodes" validate:"gte=0"`
	TimeLimit     time.Duration `yaml:"time_limit" json:"time_limit" validate:"gte=0"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxIterations: 10000,
		MaxNodes:      0,
		TimeLimit:     30 * time.Second,
	}
}

// Budget tracks the resources consumed by a planning run.
//
// Each Check counts as one iteration: with MaxIterations = N the first N
// checks pass and the next one fails, so exactly N samples are drawn.
//
// Thread Safety: Safe for concurrent use.
type Budget struct {
	config Config
	now    func() time.Time

	checks int64
	nodes  int64

	mu          sync.RWMutex
	startTime   time.Time
	exhausted   bool
	exhaustedBy string
}

// Option configures a Budget.
type Option func(*Budget)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Budget) {
		b.now = now
	}
}

// New creates a budget. The clock starts on the first Check.
func New(config Config, opts ...Option) *Budget {
	b := &Budget{config: config, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Config returns the budget configuration.
func (b *Budget) Config() Config {
	return b.config
}

// Iterations returns the number of checks that passed.
func (b *Budget) Iterations() int64 {
	checks := atomic.LoadInt64(&b.checks)
	if b.Exhausted() && checks > 0 {
		return checks - 1
	}
	return checks
}

// Nodes returns the tree size seen by the latest check.
func (b *Budget) Nodes() int64 {
	return atomic.LoadInt64(&b.nodes)
}

// Elapsed returns the time since the first check.
func (b *Budget) Elapsed() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.startTime.IsZero() {
		return 0
	}
	return b.now().Sub(b.startTime)
}

// Check records one iteration over a tree of the given size and reports
// the limit that fired, if any. Once exhausted, every later call returns
// ErrBudgetExhausted.
func (b *Budget) Check(nodes int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.exhausted {
		return ErrBudgetExhausted
	}
	if b.startTime.IsZero() {
		b.startTime = b.now()
	}
	checks := atomic.AddInt64(&b.checks, 1)
	atomic.StoreInt64(&b.nodes, int64(nodes))

	if b.config.MaxIterations > 0 && checks > int64(b.config.MaxIterations) {
		b.exhausted = true
		b.exhaustedBy = "iterations"
		return ErrIterationLimitExceeded
	}

	if b.config.MaxNodes > 0 && nodes >= b.config.MaxNodes {
		b.exhausted = true
		b.exhaustedBy = "nodes"
		return ErrNodeLimitExceeded
	}

	if b.config.TimeLimit > 0 && b.now().Sub(b.startTime) >= b.config.TimeLimit {
		b.exhausted = true
		b.exhaustedBy = "time"
		return ErrTimeLimitExceeded
	}

	return nil
}

// Exhausted returns whether a limit has fired.
func (b *Budget) Exhausted() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exhausted
}

// ExhaustedBy returns which limit fired (empty if not exhausted).
func (b *Budget) ExhaustedBy() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exhaustedBy
}

// String returns a human-readable budget status.
func (b *Budget) String() string {
	status := ""
	if by := b.ExhaustedBy(); by != "" {
		status = fmt.Sprintf(" [EXHAUSTED by %s]", by)
	}
	return fmt.Sprintf("Budget{iterations=%d/%d, nodes=%d/%d, time=%v/%v}%s",
		b.Iterations(), b.config.MaxIterations,
		b.Nodes(), b.config.MaxNodes,
		b.Elapsed().Round(time.Millisecond), b.config.TimeLimit,
		status)
}

// UsageReport summarises what a run consumed.
type UsageReport struct {
	Elapsed     time.Duration `json:"elapsed"`
	Iterations  int64         `json:"iterations"`
	Nodes       int64         `json:"nodes"`
	Exhausted   bool          `json:"exhausted"`
	ExhaustedBy string        `json:"exhausted_by,omitempty"`
}

// Report generates a usage report.
func (b *Budget) Report() UsageReport {
	return UsageReport{
		Elapsed:     b.Elapsed(),
		Iterations:  b.Iterations(),
		Nodes:       b.Nodes(),
		Exhausted:   b.Exhausted(),
		ExhaustedBy: b.ExhaustedBy(),
	}
}

// Reset clears the counters but keeps the configuration, so the budget can
// serve another run.
func (b *Budget) Reset() {
	atomic.StoreInt64(&b.checks, 0)
	atomic.StoreInt64(&b.nodes, 0)

	b.mu.Lock()
	b.startTime = time.Time{}
	b.exhausted = false
	b.exhaustedBy = ""
	b.mu.Unlock()
}

// Limiter adapts b to rrt.Limiter. Limit errors become "exceeded"; they are
// never returned as errors.
func Limiter[S any](b *Budget) rrt.Limiter[S] {
	return rrt.LimiterFunc[S](func(tree rrt.TreeView[S]) (bool, error) {
		return b.Check(tree.Len()) != nil, nil
	})
}
