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
	"fmt"
	"iter"
	"slices"
	"sync/atomic"
)

// generations hands out a distinct generation to every run of every tree.
// Generation 0 is never issued and marks the zero NodeRef as invalid.
var generations atomic.Uint64

// NodeRef is an opaque handle to a node within one run of one Tree.
//
// The zero value is invalid. A NodeRef is only meaningful for the tree run
// that produced it; CreateRoot starts a new run and invalidates every
// previously issued reference.
type NodeRef struct {
	gen uint64
	idx int
}

// Index returns the insertion index of the node. The root has index 0.
func (r NodeRef) Index() int {
	return r.idx
}

// IsZero returns true for the zero NodeRef.
func (r NodeRef) IsZero() bool {
	return r.gen == 0
}

// String returns a human-readable representation of the reference.
func (r NodeRef) String() string {
	if r.IsZero() {
		return "NodeRef{}"
	}
	return fmt.Sprintf("NodeRef{%d}", r.idx)
}

// Node pairs a reference with the state stored at it.
type Node[S any] struct {
	Ref   NodeRef
	State S
}

// treeNode is one arena slot. parent is -1 for the root.
type treeNode[S any] struct {
	state  S
	parent int
}

// TreeView is read-only access to a Tree.
//
// Collaborators receive a TreeView so they can inspect the tree without
// being able to grow it behind the session's back.
type TreeView[S any] interface {
	// Len returns the number of nodes, 0 for an empty tree.
	Len() int

	// Root returns the reference of node 0.
	Root() (NodeRef, error)

	// State returns the state stored at ref.
	State(ref NodeRef) (S, error)

	// Parent returns the parent of ref. ok is false for the root.
	Parent(ref NodeRef) (parent NodeRef, ok bool, err error)

	// All yields every node, root first then in insertion order.
	All() iter.Seq2[NodeRef, S]

	// States yields every state in the same order as All.
	States() iter.Seq[S]

	// Path returns the states from the root to ref without consuming the tree.
	Path(ref NodeRef) ([]S, error)
}

// Tree is an append-only arena of (state, parent) nodes.
//
// Invariants:
//   - node 0 is the root and has no parent
//   - every other node's parent index is strictly smaller than its own
//   - nodes are never modified or individually removed
//
// Thread Safety: NOT safe for concurrent use.
type Tree[S any] struct {
	gen   uint64
	nodes []treeNode[S]
}

// NewTree creates an empty tree. CreateRoot must be called before any other
// operation.
func NewTree[S any]() *Tree[S] {
	return &Tree[S]{}
}

// NewTreeWithCapacity creates an empty tree with room for n nodes.
func NewTreeWithCapacity[S any](n int) *Tree[S] {
	if n < 0 {
		n = 0
	}
	return &Tree[S]{nodes: make([]treeNode[S], 0, n)}
}

// CreateRoot resets the tree and inserts state as node 0.
//
// Every NodeRef issued before the call becomes foreign to the tree.
func (t *Tree[S]) CreateRoot(state S) NodeRef {
	clear(t.nodes)
	t.nodes = append(t.nodes[:0], treeNode[S]{state: state, parent: -1})
	t.gen = generations.Add(1)
	return NodeRef{gen: t.gen, idx: 0}
}

// Expand appends state as a child of parent and returns the new reference.
//
// parent must have been returned by this tree during the current run.
// Appending a state equal to the parent's state is allowed.
func (t *Tree[S]) Expand(parent NodeRef, state S) (NodeRef, error) {
	p, err := t.index(parent)
	if err != nil {
		return NodeRef{}, err
	}
	return t.push(p, state), nil
}

// ExpandChain appends states as a chain below parent, each linked to the
// previous one, and returns the reference of the last appended node.
//
// With no states the parent reference is returned unchanged.
func (t *Tree[S]) ExpandChain(parent NodeRef, states ...S) (NodeRef, error) {
	p, err := t.index(parent)
	if err != nil {
		return NodeRef{}, err
	}
	ref := parent
	for _, state := range states {
		ref = t.push(p, state)
		p = ref.idx
	}
	return ref, nil
}

func (t *Tree[S]) push(parent int, state S) NodeRef {
	t.nodes = append(t.nodes, treeNode[S]{state: state, parent: parent})
	return NodeRef{gen: t.gen, idx: len(t.nodes) - 1}
}

// Len returns the number of nodes in the tree.
func (t *Tree[S]) Len() int {
	return len(t.nodes)
}

// Root returns the reference of node 0.
func (t *Tree[S]) Root() (NodeRef, error) {
	if len(t.nodes) == 0 {
		return NodeRef{}, ErrEmptyTree
	}
	return NodeRef{gen: t.gen, idx: 0}, nil
}

// State returns the state stored at ref.
func (t *Tree[S]) State(ref NodeRef) (S, error) {
	i, err := t.index(ref)
	if err != nil {
		var zero S
		return zero, err
	}
	return t.nodes[i].state, nil
}

// Parent returns the parent of ref. ok is false for the root.
func (t *Tree[S]) Parent(ref NodeRef) (NodeRef, bool, error) {
	i, err := t.index(ref)
	if err != nil {
		return NodeRef{}, false, err
	}
	p := t.nodes[i].parent
	if p < 0 {
		return NodeRef{}, false, nil
	}
	return NodeRef{gen: t.gen, idx: p}, true, nil
}

// All yields every node, root first then in insertion order.
//
// The tree must not be modified while the sequence is being consumed.
func (t *Tree[S]) All() iter.Seq2[NodeRef, S] {
	return func(yield func(NodeRef, S) bool) {
		for i := range t.nodes {
			if !yield(NodeRef{gen: t.gen, idx: i}, t.nodes[i].state) {
				return
			}
		}
	}
}

// States yields every state, root first then in insertion order.
func (t *Tree[S]) States() iter.Seq[S] {
	return func(yield func(S) bool) {
		for i := range t.nodes {
			if !yield(t.nodes[i].state) {
				return
			}
		}
	}
}

// Path returns the states from the root to ref, root first.
//
// The tree is left untouched.
func (t *Tree[S]) Path(ref NodeRef) ([]S, error) {
	i, err := t.index(ref)
	if err != nil {
		return nil, err
	}
	var path []S
	for ; i >= 0; i = t.nodes[i].parent {
		path = append(path, t.nodes[i].state)
	}
	slices.Reverse(path)
	return path, nil
}

// IntoPath returns the states from the root to ref and releases the arena.
//
// Because parents always precede their children, once node i has been
// visited no node at index >= i can appear later in the walk, so the arena
// is truncated behind the walk as it goes. The tree is empty afterwards.
func (t *Tree[S]) IntoPath(ref NodeRef) ([]S, error) {
	i, err := t.index(ref)
	if err != nil {
		return nil, err
	}
	path := make([]S, 0, 16)
	for i >= 0 {
		n := t.nodes[i]
		path = append(path, n.state)
		clear(t.nodes[i:])
		t.nodes = t.nodes[:i]
		i = n.parent
	}
	t.nodes = nil
	t.gen = 0
	slices.Reverse(path)
	return path, nil
}

// View returns a read-only view of the tree.
func (t *Tree[S]) View() TreeView[S] {
	return treeView[S]{t: t}
}

// index validates ref against the current run and returns its slot.
func (t *Tree[S]) index(ref NodeRef) (int, error) {
	if len(t.nodes) == 0 {
		return 0, ErrEmptyTree
	}
	if ref.gen == 0 {
		return 0, ErrInvalidNodeRef
	}
	if ref.gen != t.gen {
		return 0, fmt.Errorf("%w: %s", ErrForeignNodeRef, ref)
	}
	if ref.idx < 0 || ref.idx >= len(t.nodes) {
		return 0, fmt.Errorf("%w: index %d of %d", ErrInvalidNodeRef, ref.idx, len(t.nodes))
	}
	return ref.idx, nil
}

// treeView hides the mutating methods of Tree.
type treeView[S any] struct {
	t *Tree[S]
}

func (v treeView[S]) Len() int                                  { return v.t.Len() }
func (v treeView[S]) Root() (NodeRef, error)                    { return v.t.Root() }
func (v treeView[S]) State(ref NodeRef) (S, error)              { return v.t.State(ref) }
func (v treeView[S]) Parent(ref NodeRef) (NodeRef, bool, error) { return v.t.Parent(ref) }
func (v treeView[S]) All() iter.Seq2[NodeRef, S]                { return v.t.All() }
func (v treeView[S]) States() iter.Seq[S]                       { return v.t.States() }
func (v treeView[S]) Path(ref NodeRef) ([]S, error)             { return v.t.Path(ref) }
