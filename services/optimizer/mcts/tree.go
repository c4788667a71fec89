// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mcts

import (
	"fmt"
	"strings"

	"github.com/CadenceLabs/CadenceCore/services/optimizer/funnel"
)

// Tree owns every node of one search run in a flat arena.
//
// Node ids are indices into the arena, which keeps traversal cheap and
// avoids parent/child reference cycles. A Tree is created at the start
// of one Optimize call and dropped when the call returns; nodes never
// outlive their tree and are never shared across runs.
//
// Thread Safety: Not safe for concurrent use. Each engine run owns its
// tree exclusively.
type Tree struct {
	nodes []Node
}

// NewTree creates a tree containing only the root node at the given
// stage. The root carries the neutral amplification of 1.0.
func NewTree(initial funnel.Stage) *Tree {
	return &Tree{
		nodes: []Node{{
			Stage:         initial,
			Parent:        NoNode,
			Amplification: 1.0,
		}},
	}
}

// Root returns the id of the root node.
func (t *Tree) Root() NodeID {
	return 0
}

// Node returns a pointer into the arena. The pointer is invalidated by
// the next AddChild call; callers must not retain it across growth.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Len returns the total number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// AddChild appends a new node under parent and returns its id.
func (t *Tree) AddChild(parent NodeID, stage funnel.Stage, combo []string, amplification float64) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		Stage:         stage,
		Parent:        parent,
		Combo:         combo,
		Amplification: amplification,
	})
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	return id
}

// Path returns the node ids from the root to id, inclusive.
func (t *Tree) Path(id NodeID) []NodeID {
	var rev []NodeID
	for cur := id; cur != NoNode; cur = t.nodes[cur].Parent {
		rev = append(rev, cur)
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

// Depth returns the edge count from the root to id.
func (t *Tree) Depth(id NodeID) int {
	depth := 0
	for cur := t.nodes[id].Parent; cur != NoNode; cur = t.nodes[cur].Parent {
		depth++
	}
	return depth
}

// Format renders the tree for terminal display.
func (t *Tree) Format() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Nodes: %d\n", t.Len()))
	t.formatNode(&sb, t.Root(), "", true)
	return sb.String()
}

func (t *Tree) formatNode(sb *strings.Builder, id NodeID, prefix string, isLast bool) {
	branch := "├── "
	childPrefix := prefix + "│   "
	if isLast {
		branch = "└── "
		childPrefix = prefix + "    "
	}
	if id == t.Root() {
		branch = ""
		childPrefix = ""
	}

	n := t.Node(id)
	label := "root"
	if len(n.Combo) > 0 {
		label = strings.Join(n.Combo, "+")
	}
	sb.WriteString(fmt.Sprintf("%s%s%s [%s] (mean: %.3f, visits: %d, amp: %.2f)\n",
		prefix, branch, label, n.Stage, n.MeanValue(), n.Visits, n.Amplification))

	children := n.Children
	for i, child := range children {
		t.formatNode(sb, child, childPrefix, i == len(children)-1)
	}
}
