// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mcts

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RecordSearch(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	engine, err := New(nil, DefaultConfig(), WithMetrics(metrics))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := engine.Optimize(context.Background(), Request{
		Objective: "default",
		Budget:    Budget{MaxIterations: 25, TimeLimit: time.Second},
	})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	got := testutil.ToFloat64(metrics.iterations)
	if got != float64(result.Iterations) {
		t.Errorf("iterations counter = %v, want %d", got, result.Iterations)
	}

	searches := testutil.ToFloat64(metrics.searches.WithLabelValues(string(result.Classification)))
	if searches != 1 {
		t.Errorf("searches counter = %v, want 1", searches)
	}
}

func TestMetrics_ZeroBudgetStillCounted(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	engine, err := New(nil, DefaultConfig(), WithMetrics(metrics))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := engine.Optimize(context.Background(), Request{Objective: "x"}); err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	got := testutil.ToFloat64(metrics.searches.WithLabelValues(string(ClassNoData)))
	if got != 1 {
		t.Errorf("no_data searches counter = %v, want 1", got)
	}
}
