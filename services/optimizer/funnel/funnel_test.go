// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package funnel

import (
	"errors"
	"testing"
)

func TestStage_Ordering(t *testing.T) {
	stages := Stages()
	for i := 1; i < len(stages); i++ {
		if stages[i] <= stages[i-1] {
			t.Errorf("stage %s not greater than %s", stages[i], stages[i-1])
		}
	}
}

func TestStage_IsTerminal(t *testing.T) {
	for _, s := range Stages() {
		want := s == StageLoyal
		if s.IsTerminal() != want {
			t.Errorf("IsTerminal(%s) = %v, want %v", s, s.IsTerminal(), want)
		}
	}
}

func TestStage_String(t *testing.T) {
	if got := StageEngaged.String(); got != "engaged" {
		t.Errorf("String = %s, want engaged", got)
	}
	if got := Stage(99).String(); got != "unknown" {
		t.Errorf("String = %s, want unknown", got)
	}
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		input   string
		want    Stage
		wantErr bool
	}{
		{"initial", StageInitial, false},
		{"CURIOUS", StageCurious, false},
		{"  Loyal ", StageLoyal, false},
		{"ascended", StageInitial, true},
		{"", StageInitial, true},
	}

	for _, tt := range tests {
		got, err := ParseStage(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseStage(%q) expected error", tt.input)
				continue
			}
			var invalid *InvalidStageError
			if !errors.As(err, &invalid) {
				t.Errorf("ParseStage(%q) error type = %T, want *InvalidStageError", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStage(%q) unexpected error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseStage(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(StageCommitted); err != nil {
		t.Errorf("Validate(committed) = %v, want nil", err)
	}
	if err := Validate(Stage(-1)); err == nil {
		t.Error("Validate(-1) expected error")
	}
	if err := Validate(Stage(6)); err == nil {
		t.Error("Validate(6) expected error")
	}
}

func TestAdvance_Monotone(t *testing.T) {
	for _, s := range Stages() {
		for _, accel := range []float64{0, 0.5, 1.0, 1.9, 2.5, 10} {
			next := Advance(s, accel)
			if next < s {
				t.Errorf("Advance(%s, %v) = %s, regressed", s, accel, next)
			}
			if !next.Valid() {
				t.Errorf("Advance(%s, %v) = %d, out of range", s, accel, next)
			}
		}
	}
}

func TestAdvance_ClampsAtTerminal(t *testing.T) {
	if got := Advance(StageCommitted, 5.0); got != StageLoyal {
		t.Errorf("Advance(committed, 5.0) = %s, want loyal", got)
	}
	if got := Advance(StageLoyal, 3.0); got != StageLoyal {
		t.Errorf("Advance(loyal, 3.0) = %s, want loyal", got)
	}
}

func TestAdvance_IntegerSteps(t *testing.T) {
	if got := Advance(StageInitial, 1.4); got != StageCurious {
		t.Errorf("Advance(initial, 1.4) = %s, want curious", got)
	}
	if got := Advance(StageInitial, 2.0); got != StageInterested {
		t.Errorf("Advance(initial, 2.0) = %s, want interested", got)
	}
	if got := Advance(StageInitial, 0.9); got != StageInitial {
		t.Errorf("Advance(initial, 0.9) = %s, want initial", got)
	}
}
