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
	"slices"
	"testing"
)

func TestTree_CreateRoot(t *testing.T) {
	tree := NewTree[int]()
	root := tree.CreateRoot(7)

	if tree.Len() != 1 {
		t.Fatalf("Len = %d, want 1", tree.Len())
	}
	if root.Index() != 0 {
		t.Errorf("root index = %d, want 0", root.Index())
	}
	if root.IsZero() {
		t.Error("root ref should not be zero")
	}
	state, err := tree.State(root)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state != 7 {
		t.Errorf("State = %d, want 7", state)
	}
	if _, ok, err := tree.Parent(root); err != nil || ok {
		t.Errorf("Parent(root) = ok %v err %v, want no parent", ok, err)
	}
}

func TestTree_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		states []string
	}{
		{"root only", nil},
		{"single", []string{"a"}},
		{"chain", []string{"a", "b", "c", "d"}},
		{"self edges", []string{"r", "r", "r"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := NewTree[string]()
			ref := tree.CreateRoot("r")
			for _, s := range tt.states {
				var err error
				ref, err = tree.Expand(ref, s)
				if err != nil {
					t.Fatalf("Expand(%q): %v", s, err)
				}
			}

			want := append([]string{"r"}, tt.states...)

			borrowed, err := tree.Path(ref)
			if err != nil {
				t.Fatalf("Path: %v", err)
			}
			if !slices.Equal(borrowed, want) {
				t.Errorf("Path = %v, want %v", borrowed, want)
			}

			consumed, err := tree.IntoPath(ref)
			if err != nil {
				t.Fatalf("IntoPath: %v", err)
			}
			if !slices.Equal(consumed, want) {
				t.Errorf("IntoPath = %v, want %v", consumed, want)
			}
			if tree.Len() != 0 {
				t.Errorf("Len after IntoPath = %d, want 0", tree.Len())
			}
		})
	}
}

func TestTree_IntoPathSkipsSiblings(t *testing.T) {
	tree := NewTree[int]()
	root := tree.CreateRoot(0)
	a, _ := tree.Expand(root, 1)
	_, _ = tree.Expand(root, 2)
	b, _ := tree.Expand(a, 3)
	_, _ = tree.Expand(b, 4)
	c, _ := tree.Expand(b, 5)

	path, err := tree.IntoPath(c)
	if err != nil {
		t.Fatalf("IntoPath: %v", err)
	}
	if want := []int{0, 1, 3, 5}; !slices.Equal(path, want) {
		t.Errorf("IntoPath = %v, want %v", path, want)
	}
}

func TestTree_ExpandChain(t *testing.T) {
	tree := NewTree[int]()
	root := tree.CreateRoot(0)

	last, err := tree.ExpandChain(root, 1, 2, 3)
	if err != nil {
		t.Fatalf("ExpandChain: %v", err)
	}
	if tree.Len() != 4 {
		t.Errorf("Len = %d, want 4", tree.Len())
	}
	path, err := tree.Path(last)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if want := []int{0, 1, 2, 3}; !slices.Equal(path, want) {
		t.Errorf("Path = %v, want %v", path, want)
	}

	same, err := tree.ExpandChain(last)
	if err != nil {
		t.Fatalf("ExpandChain(empty): %v", err)
	}
	if same != last {
		t.Errorf("ExpandChain with no states = %v, want %v", same, last)
	}
}

func TestTree_RefsAreDistinct(t *testing.T) {
	tree := NewTree[int]()
	refs := []NodeRef{tree.CreateRoot(0)}
	for i := 1; i < 50; i++ {
		ref, err := tree.Expand(refs[(i*7)%len(refs)], i)
		if err != nil {
			t.Fatalf("Expand: %v", err)
		}
		refs = append(refs, ref)
	}

	seen := make(map[NodeRef]bool, len(refs))
	for _, ref := range refs {
		if seen[ref] {
			t.Fatalf("NodeRef %v issued twice", ref)
		}
		seen[ref] = true
	}
}

func TestTree_ParentPrecedesChild(t *testing.T) {
	tree := NewTree[int]()
	refs := []NodeRef{tree.CreateRoot(0)}
	for i := 1; i < 30; i++ {
		ref, _ := tree.Expand(refs[i/2], i)
		refs = append(refs, ref)
	}
	for ref := range tree.All() {
		parent, ok, err := tree.Parent(ref)
		if err != nil {
			t.Fatalf("Parent(%v): %v", ref, err)
		}
		if ref.Index() == 0 {
			if ok {
				t.Error("root has a parent")
			}
			continue
		}
		if !ok || parent.Index() >= ref.Index() {
			t.Errorf("node %d has parent %d", ref.Index(), parent.Index())
		}
	}
}

func TestTree_AllIsRootFirst(t *testing.T) {
	tree := NewTree[string]()
	root := tree.CreateRoot("root")
	a, _ := tree.Expand(root, "a")
	_, _ = tree.Expand(a, "b")
	_, _ = tree.Expand(root, "c")

	var got []string
	for _, s := range tree.All() {
		got = append(got, s)
	}
	if want := []string{"root", "a", "b", "c"}; !slices.Equal(got, want) {
		t.Errorf("All = %v, want %v", got, want)
	}
	if states := slices.Collect(tree.States()); !slices.Equal(states, got) {
		t.Errorf("States = %v, want %v", states, got)
	}
}

func TestTree_ForeignRef(t *testing.T) {
	t1 := NewTree[int]()
	t2 := NewTree[int]()
	r1 := t1.CreateRoot(1)
	t2.CreateRoot(2)

	if _, err := t2.Expand(r1, 3); !errors.Is(err, ErrForeignNodeRef) {
		t.Errorf("Expand with foreign ref: err = %v, want ErrForeignNodeRef", err)
	}
	if _, err := t2.State(r1); !errors.Is(err, ErrForeignNodeRef) {
		t.Errorf("State with foreign ref: err = %v, want ErrForeignNodeRef", err)
	}
}

func TestTree_StaleRefAfterNewRun(t *testing.T) {
	tree := NewTree[int]()
	old := tree.CreateRoot(1)
	tree.CreateRoot(2)

	if _, err := tree.Path(old); !errors.Is(err, ErrForeignNodeRef) {
		t.Errorf("Path with ref from earlier run: err = %v, want ErrForeignNodeRef", err)
	}
}

func TestTree_InvalidRefs(t *testing.T) {
	tree := NewTree[int]()
	if _, err := tree.Root(); !errors.Is(err, ErrEmptyTree) {
		t.Errorf("Root on empty tree: err = %v, want ErrEmptyTree", err)
	}

	root := tree.CreateRoot(1)
	if _, err := tree.State(NodeRef{}); !errors.Is(err, ErrInvalidNodeRef) {
		t.Errorf("State(zero): err = %v, want ErrInvalidNodeRef", err)
	}
	if _, err := tree.State(NodeRef{gen: root.gen, idx: 5}); !errors.Is(err, ErrInvalidNodeRef) {
		t.Errorf("State(out of range): err = %v, want ErrInvalidNodeRef", err)
	}

	if _, err := tree.IntoPath(root); err != nil {
		t.Fatalf("IntoPath: %v", err)
	}
	if _, err := tree.Expand(root, 2); !errors.Is(err, ErrEmptyTree) {
		t.Errorf("Expand after IntoPath: err = %v, want ErrEmptyTree", err)
	}
}

func TestTree_ViewIsReadOnly(t *testing.T) {
	tree := NewTreeWithCapacity[int](4)
	root := tree.CreateRoot(1)
	view := tree.View()

	if _, ok := view.(*Tree[int]); ok {
		t.Fatal("View exposes the mutable tree")
	}
	if _, err := tree.Expand(root, 2); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if view.Len() != 2 {
		t.Errorf("view Len = %d, want 2", view.Len())
	}
}

func TestNodeRef_String(t *testing.T) {
	if got := (NodeRef{}).String(); got != "NodeRef{}" {
		t.Errorf("zero String = %q", got)
	}
	tree := NewTree[int]()
	root := tree.CreateRoot(0)
	ref, _ := tree.Expand(root, 1)
	if got := ref.String(); got != "NodeRef{1}" {
		t.Errorf("String = %q, want NodeRef{1}", got)
	}
}
