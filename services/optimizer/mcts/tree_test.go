// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mcts

import (
	"strings"
	"testing"

	"github.com/CadenceLabs/CadenceCore/services/optimizer/funnel"
)

func TestNewTree(t *testing.T) {
	tree := NewTree(funnel.StageCurious)

	if tree.Len() != 1 {
		t.Fatalf("Len = %d, want 1", tree.Len())
	}
	root := tree.Node(tree.Root())
	if root.Parent != NoNode {
		t.Errorf("root parent = %d, want NoNode", root.Parent)
	}
	if len(root.Combo) != 0 {
		t.Errorf("root combo = %v, want empty", root.Combo)
	}
	if root.Stage != funnel.StageCurious {
		t.Errorf("root stage = %s, want curious", root.Stage)
	}
	if root.Amplification != 1.0 {
		t.Errorf("root amplification = %v, want 1.0", root.Amplification)
	}
	if root.Visits != 0 || root.ValueSum != 0 {
		t.Errorf("fresh root visits/value = %d/%v, want 0/0", root.Visits, root.ValueSum)
	}
}

func TestTree_AddChild(t *testing.T) {
	tree := NewTree(funnel.StageInitial)
	child := tree.AddChild(tree.Root(), funnel.StageCurious, []string{"social_proof"}, 1.7)

	if tree.Len() != 2 {
		t.Fatalf("Len = %d, want 2", tree.Len())
	}
	n := tree.Node(child)
	if n.Parent != tree.Root() {
		t.Errorf("child parent = %d, want root", n.Parent)
	}
	if got := tree.Node(tree.Root()).Children; len(got) != 1 || got[0] != child {
		t.Errorf("root children = %v, want [%d]", got, child)
	}
	if n.Amplification != 1.7 {
		t.Errorf("child amplification = %v, want 1.7", n.Amplification)
	}
}

func TestTree_Path(t *testing.T) {
	tree := NewTree(funnel.StageInitial)
	a := tree.AddChild(tree.Root(), funnel.StageCurious, []string{"a"}, 1.0)
	b := tree.AddChild(a, funnel.StageInterested, []string{"b"}, 1.0)

	path := tree.Path(b)
	want := []NodeID{tree.Root(), a, b}
	if len(path) != len(want) {
		t.Fatalf("path length = %d, want %d", len(path), len(want))
	}
	for i := range want {
		if path[i] != want[i] {
			t.Errorf("path[%d] = %d, want %d", i, path[i], want[i])
		}
	}

	if got := tree.Depth(b); got != 2 {
		t.Errorf("Depth = %d, want 2", got)
	}
}

func TestNode_MeanValue(t *testing.T) {
	n := Node{}
	if n.MeanValue() != 0 {
		t.Errorf("unvisited MeanValue = %v, want 0", n.MeanValue())
	}
	n.Visits = 4
	n.ValueSum = 2.0
	if n.MeanValue() != 0.5 {
		t.Errorf("MeanValue = %v, want 0.5", n.MeanValue())
	}
}

func TestTree_Format(t *testing.T) {
	tree := NewTree(funnel.StageInitial)
	tree.AddChild(tree.Root(), funnel.StageEngaged, []string{"curiosity_hook", "social_proof"}, 1.6)

	out := tree.Format()
	if !strings.Contains(out, "root") {
		t.Errorf("Format missing root line:\n%s", out)
	}
	if !strings.Contains(out, "curiosity_hook+social_proof") {
		t.Errorf("Format missing combo label:\n%s", out)
	}
	if !strings.Contains(out, "Nodes: 2") {
		t.Errorf("Format missing node count:\n%s", out)
	}
}
