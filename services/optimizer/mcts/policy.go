// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mcts

import "math"

// UCB1Policy selects children by an upper-confidence-bound score with an
// additive amplification bias:
//
//	score = value_sum/visits
//	      + c * sqrt(ln(parent.visits) / child.visits)
//	      + child.amplification * ampWeight
//
// An unvisited child scores +Inf and is therefore always selected before
// any visited sibling. Ties go to the first-encountered child in
// insertion order, keeping selection deterministic.
type UCB1Policy struct {
	c         float64
	ampWeight float64
}

// NewUCB1Policy creates a policy with the given exploration constant and
// amplification bias weight.
func NewUCB1Policy(c, ampWeight float64) *UCB1Policy {
	return &UCB1Policy{c: c, ampWeight: ampWeight}
}

// Score computes the selection score of child under parent.
func (p *UCB1Policy) Score(parent, child *Node) float64 {
	if child.Visits == 0 {
		return math.Inf(1)
	}
	exploitation := child.ValueSum / float64(child.Visits)
	exploration := math.Sqrt(math.Log(float64(parent.Visits)) / float64(child.Visits))
	return exploitation + p.c*exploration + child.Amplification*p.ampWeight
}

// SelectChild returns the highest-scoring child of id, or NoNode for a
// leaf.
func (p *UCB1Policy) SelectChild(t *Tree, id NodeID) NodeID {
	parent := t.Node(id)
	if len(parent.Children) == 0 {
		return NoNode
	}

	best := parent.Children[0]
	bestScore := p.Score(parent, t.Node(best))
	for _, childID := range parent.Children[1:] {
		// Strict comparison keeps the first unvisited child ahead of
		// later unvisited siblings (Inf > Inf is false).
		if score := p.Score(parent, t.Node(childID)); score > bestScore {
			best = childID
			bestScore = score
		}
	}
	return best
}
