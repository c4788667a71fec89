// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package funnel defines the ordered engagement stages a subject moves
// through during optimization, and the transition model that advances
// them.
//
// Stages form a strict progression: a transition never moves a subject
// to an earlier stage, and the final stage is terminal.
package funnel

import (
	"fmt"
	"strings"
)

// Stage is one position in the engagement funnel.
//
// The zero value is StageInitial, the lowest stage. Stages are strictly
// ordered; StageLoyal is terminal.
type Stage int

const (
	StageInitial Stage = iota
	StageCurious
	StageInterested
	StageEngaged
	StageCommitted
	StageLoyal
)

// stageNames maps stages to their canonical lowercase names.
var stageNames = [...]string{
	StageInitial:    "initial",
	StageCurious:    "curious",
	StageInterested: "interested",
	StageEngaged:    "engaged",
	StageCommitted:  "committed",
	StageLoyal:      "loyal",
}

// String returns the canonical name of the stage, or "unknown" for
// out-of-range values.
func (s Stage) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return stageNames[s]
}

// Valid reports whether the stage is within the enumerated range.
func (s Stage) Valid() bool {
	return s >= StageInitial && s <= StageLoyal
}

// IsTerminal reports whether the stage is the final funnel stage.
func (s Stage) IsTerminal() bool {
	return s == StageLoyal
}

// Stages returns all stages in ascending order.
func Stages() []Stage {
	return []Stage{
		StageInitial, StageCurious, StageInterested,
		StageEngaged, StageCommitted, StageLoyal,
	}
}

// InvalidStageError is returned when input names a stage outside the
// enumerated range.
type InvalidStageError struct {
	Input string
}

func (e *InvalidStageError) Error() string {
	return fmt.Sprintf("invalid funnel stage %q", e.Input)
}

// ParseStage resolves a case-insensitive stage name.
//
// Inputs:
//   - name: Stage name, e.g. "initial" or "ENGAGED".
//
// Outputs:
//   - Stage: The matching stage.
//   - error: *InvalidStageError if the name matches no stage.
func ParseStage(name string) (Stage, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for i, n := range stageNames {
		if n == needle {
			return Stage(i), nil
		}
	}
	return StageInitial, &InvalidStageError{Input: name}
}

// Validate checks that a stage value is within the enumerated range.
//
// Outputs:
//   - error: *InvalidStageError if the value is out of range.
func Validate(s Stage) error {
	if !s.Valid() {
		return &InvalidStageError{Input: fmt.Sprintf("stage(%d)", int(s))}
	}
	return nil
}

// Advance computes the next stage from the current stage and an
// acceleration factor derived from aggregate strategy amplification.
//
// The advance amount is the integer part of the acceleration. The result
// is clamped at the terminal stage and never precedes the current stage.
// Deterministic for identical inputs.
//
// Inputs:
//   - current: The current funnel stage.
//   - acceleration: Aggregate amplification of the applied combo.
//
// Outputs:
//   - Stage: The advanced stage.
func Advance(current Stage, acceleration float64) Stage {
	if current.IsTerminal() {
		return current
	}
	steps := int(acceleration)
	if steps < 0 {
		steps = 0
	}
	next := current + Stage(steps)
	if next > StageLoyal {
		next = StageLoyal
	}
	return next
}
