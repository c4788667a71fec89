// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"strings"
	"testing"
)

func TestIcon_Render(t *testing.T) {
	tests := []struct {
		icon Icon
		want string
	}{
		{IconSuccess, "✓"},
		{IconWarning, "⚠"},
		{IconError, "✗"},
		{IconArrow, "→"},
	}

	for _, tt := range tests {
		if got := tt.icon.Render(); !strings.Contains(got, tt.want) {
			t.Errorf("Icon(%q).Render() = %q, want to contain %q", tt.icon, got, tt.want)
		}
	}
}

func TestKeyValue_ContainsBoth(t *testing.T) {
	line := KeyValue("Combo", "a+b")
	if !strings.Contains(line, "Combo") || !strings.Contains(line, "a+b") {
		t.Errorf("KeyValue missing parts: %q", line)
	}
}

func TestScoreBar_Bounds(t *testing.T) {
	tests := []struct {
		name  string
		score float64
	}{
		{"zero", 0},
		{"half", 0.5},
		{"full", 1},
		{"above_one", 1.3},
		{"negative", -0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := ScoreBar(tt.score, 10)
			if bar == "" {
				t.Fatal("empty bar")
			}
			fills := strings.Count(bar, "█") + strings.Count(bar, "░")
			if fills != 10 {
				t.Errorf("bar width = %d, want 10", fills)
			}
		})
	}
}

func TestScoreBar_DefaultWidth(t *testing.T) {
	bar := ScoreBar(0.5, 0)
	fills := strings.Count(bar, "█") + strings.Count(bar, "░")
	if fills != 20 {
		t.Errorf("bar width = %d, want default 20", fills)
	}
}
