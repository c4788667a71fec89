// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mcts

import (
	"fmt"
	"time"
)

// Budget bounds one search run. Immutable for the duration of a run.
//
// A zero value on either axis means the run cannot perform any
// iterations and returns an empty result immediately.
type Budget struct {
	MaxIterations uint64        `json:"max_iterations" yaml:"max_iterations"`
	TimeLimit     time.Duration `json:"time_limit" yaml:"time_limit"`
}

// Zero reports whether the budget permits no iterations at all.
func (b Budget) Zero() bool {
	return b.MaxIterations == 0 || b.TimeLimit <= 0
}

// String returns a human-readable budget description.
func (b Budget) String() string {
	return fmt.Sprintf("Budget{iterations=%d, time=%v}", b.MaxIterations, b.TimeLimit)
}

// Tracker follows budget consumption across iterations of one run.
//
// The budget is checked once per iteration boundary only, which bounds
// worst-case overrun to a single iteration's cost.
type Tracker struct {
	budget     Budget
	start      time.Time
	iterations uint64
}

// NewTracker starts tracking against the given budget.
func NewTracker(budget Budget) *Tracker {
	return &Tracker{budget: budget, start: time.Now()}
}

// Elapsed returns wall-clock time since tracking began.
func (t *Tracker) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Iterations returns the number of completed iterations.
func (t *Tracker) Iterations() uint64 {
	return t.iterations
}

// RecordIteration marks one iteration as fully completed.
func (t *Tracker) RecordIteration() {
	t.iterations++
}

// Exhausted reports whether the budget is spent and which limit was hit
// ("iterations" or "time"); the empty string means neither.
func (t *Tracker) Exhausted() (string, bool) {
	if t.iterations >= t.budget.MaxIterations {
		return "iterations", true
	}
	if t.Elapsed() >= t.budget.TimeLimit {
		return "time", true
	}
	return "", false
}
