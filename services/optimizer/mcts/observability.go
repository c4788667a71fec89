// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mcts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus counters for completed search runs.
//
// All updates happen after the search loop finishes; nothing inside the
// loop touches a metric, keeping the loop free of shared state.
type Metrics struct {
	searches   *prometheus.CounterVec
	iterations prometheus.Counter
	treeNodes  prometheus.Histogram
	duration   prometheus.Histogram
}

// NewMetrics registers the optimizer metrics on the given registerer.
//
// Inputs:
//   - reg: Target registry; nil uses the default registerer.
//
// Outputs:
//   - *Metrics: Ready to attach via WithMetrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cadence",
			Subsystem: "optimizer",
			Name:      "searches_total",
			Help:      "Completed search runs by result classification.",
		}, []string{"classification"}),
		iterations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cadence",
			Subsystem: "optimizer",
			Name:      "iterations_total",
			Help:      "Completed MCTS iterations across all runs.",
		}),
		treeNodes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cadence",
			Subsystem: "optimizer",
			Name:      "tree_nodes",
			Help:      "Final tree size per search run.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cadence",
			Subsystem: "optimizer",
			Name:      "search_duration_seconds",
			Help:      "Wall-clock duration per search run.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// RecordSearch records the outcome of one completed run.
func (m *Metrics) RecordSearch(result *Result, nodes int) {
	m.searches.WithLabelValues(string(result.Classification)).Inc()
	m.iterations.Add(float64(result.Iterations))
	m.treeNodes.Observe(float64(nodes))
	m.duration.Observe(result.Elapsed.Seconds())
}
