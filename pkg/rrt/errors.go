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
	"errors"
	"fmt"
)

// Sentinel errors for tree and session contract violations.
//
// These indicate programming errors in the caller and are unreachable under
// correct use of the API. They are always returned wrapped in a *PlanError
// tagged SourceTreeStore, or SourceTransitionChecker for ErrEmptyTransition.
var (
	// ErrForeignNodeRef is returned when a NodeRef is used against a tree
	// other than the one that produced it, or against an earlier run of
	// the same tree.
	ErrForeignNodeRef = errors.New("node reference belongs to another tree")

	// ErrInvalidNodeRef is returned for the zero NodeRef or an index
	// outside the arena.
	ErrInvalidNodeRef = errors.New("invalid node reference")

	// ErrEmptyTree is returned when an operation needs a root and the tree
	// has none, either because CreateRoot was never called or because the
	// tree was consumed by IntoPath.
	ErrEmptyTree = errors.New("tree has no root")

	// ErrStalePhase is returned when a session phase value is advanced a
	// second time.
	ErrStalePhase = errors.New("session phase already consumed")

	// ErrEmptyTransition is returned when a TransitionChecker accepts a
	// transition without any states to append.
	ErrEmptyTransition = errors.New("accepted transition has no states")
)

// ErrMissingCollaborator is returned by Planner.Plan when a required
// collaborator is nil. It is not wrapped in a *PlanError.
var ErrMissingCollaborator = errors.New("planner collaborator is nil")

// Source identifies which collaborator produced an error.
type Source int

const (
	// SourceTreeStore tags invariant violations of the tree or session.
	SourceTreeStore Source = iota + 1
	SourceSampler
	SourceLimiter
	SourceGoalChecker
	SourceTransitionChecker
	SourceSeenCache
	// SourceNearest tags failures of the nearest-node locator or its
	// distance metric.
	SourceNearest
)

// String returns the string representation of the source.
func (s Source) String() string {
	switch s {
	case SourceTreeStore:
		return "tree_store"
	case SourceSampler:
		return "sampler"
	case SourceLimiter:
		return "limiter"
	case SourceGoalChecker:
		return "goal_checker"
	case SourceTransitionChecker:
		return "transition_checker"
	case SourceSeenCache:
		return "seen_cache"
	case SourceNearest:
		return "nearest"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// PlanError wraps an error with the collaborator that produced it.
//
// The wrapped error is never inspected by the engine; callers retrieve it
// with errors.Is / errors.As or Unwrap.
type PlanError struct {
	Source Source
	Err    error
}

// Error implements error.
func (e *PlanError) Error() string {
	return fmt.Sprintf("rrt %s: %v", e.Source, e.Err)
}

// Unwrap returns the collaborator error.
func (e *PlanError) Unwrap() error {
	return e.Err
}

// SourceOf returns the Source of the first *PlanError in err's chain.
func SourceOf(err error) (Source, bool) {
	var pe *PlanError
	if errors.As(err, &pe) {
		return pe.Source, true
	}
	return 0, false
}

// tag wraps err with source unless it already carries a tag.
//
// A collaborator may call back into the engine (for example AlreadySeen from
// a TransitionChecker) and return the tagged error it received; keeping the
// innermost tag preserves the true origin.
func tag(source Source, err error) error {
	if err == nil {
		return nil
	}
	var pe *PlanError
	if errors.As(err, &pe) {
		return err
	}
	return &PlanError{Source: source, Err: err}
}
