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

// Classification buckets a search outcome by the shape of its winning
// combo.
type Classification string

const (
	// ClassNoData means the budget allowed no expansion at all.
	ClassNoData Classification = "no_data"

	// ClassSimple is a short combo without the top-tier strategy.
	ClassSimple Classification = "simple"

	// ClassMultiVector is a combo of three or more strategies.
	ClassMultiVector Classification = "multi_vector"

	// ClassTopMatch is any combo containing the top-tier strategy.
	ClassTopMatch Classification = "top_match"
)

// Result is the outcome of one Optimize run.
type Result struct {
	// RunID uniquely identifies this run for history and correlation.
	RunID string `json:"run_id"`

	// Objective is the free-text objective the run was classified from.
	Objective string `json:"objective"`

	// Combo is the recommended strategy sequence. Empty for no_data.
	Combo []string `json:"combo"`

	// ExpectedScore is the mean backpropagated value of the best child.
	ExpectedScore float64 `json:"expected_score"`

	// Confidence is min(ExpectedScore * amplification, 1.0).
	Confidence float64 `json:"confidence"`

	// Iterations is the number of fully completed search iterations.
	Iterations uint64 `json:"iterations"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`

	// Classification buckets the outcome; see the Class constants.
	Classification Classification `json:"classification"`
}

// String returns a one-line summary of the result.
func (r *Result) String() string {
	return fmt.Sprintf("Result{class=%s, combo=%v, score=%.3f, confidence=%.3f, iterations=%d}",
		r.Classification, r.Combo, r.ExpectedScore, r.Confidence, r.Iterations)
}

// classify applies the fixed membership rules: presence of the top-tier
// strategy wins over combo size, which wins over the simple default.
func classify(combo []string, topTier string) Classification {
	if len(combo) == 0 {
		return ClassNoData
	}
	for _, id := range combo {
		if id == topTier {
			return ClassTopMatch
		}
	}
	if len(combo) >= 3 {
		return ClassMultiVector
	}
	return ClassSimple
}
