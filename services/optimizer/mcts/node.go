// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package mcts implements a single-threaded, deterministic Monte Carlo
// Tree Search over engagement strategy combos.
//
// One Engine run builds a tree of candidate strategy sequences, scores
// them by simulation, and extracts the best-performing combo under an
// iteration/time budget. All randomness comes from one seeded RNG per
// run, so a run is fully reproducible given the same catalog, objective,
// budget, and seed.
package mcts

import (
	"github.com/CadenceLabs/CadenceCore/services/optimizer/funnel"
)

// NodeID indexes a node inside its owning Tree's arena.
type NodeID int32

// NoNode is the parent id of the root node.
const NoNode NodeID = -1

// Node is one state in the search tree.
//
// Nodes live in a Tree-owned arena and reference relatives by id: the
// parent reference is non-owning, children are owned by the tree in
// insertion order. Invariants maintained by the engine:
//
//   - Visits == 0 implies ValueSum == 0.
//   - Visits increases only through backpropagation.
//   - The root has Parent == NoNode and an empty Combo.
//   - A child's stage index is never below its parent's.
type Node struct {
	Stage         funnel.Stage
	Parent        NodeID
	Children      []NodeID
	Visits        uint64
	ValueSum      float64
	Combo         []string
	Amplification float64
}

// MeanValue returns ValueSum/Visits, or 0 for an unvisited node.
func (n *Node) MeanValue() float64 {
	if n.Visits == 0 {
		return 0
	}
	return n.ValueSum / float64(n.Visits)
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}
