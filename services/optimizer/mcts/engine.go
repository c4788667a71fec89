// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mcts

import (
	"context"
	"log/slog"
	"math/rand"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/CadenceLabs/CadenceCore/services/optimizer/catalog"
	"github.com/CadenceLabs/CadenceCore/services/optimizer/funnel"
)

// objectiveCategory is the closed set of contexts an objective string
// resolves into. Resolution happens once per run; unmatched text maps
// to categoryDefault.
type objectiveCategory int

const (
	categoryDefault objectiveCategory = iota
	categoryResearch
	categoryCreative
	categoryTechnical
)

func (c objectiveCategory) String() string {
	switch c {
	case categoryResearch:
		return "research"
	case categoryCreative:
		return "creative"
	case categoryTechnical:
		return "technical"
	default:
		return "default"
	}
}

var categoryKeywords = []struct {
	category objectiveCategory
	words    []string
}{
	{categoryResearch, []string{"research", "analysis", "study", "insight"}},
	{categoryCreative, []string{"creative", "story", "design", "brand"}},
	{categoryTechnical, []string{"technical", "engineering", "developer", "integration"}},
}

// preferredStrategies maps each category to its preferred strategy ids.
// Expansion intersects these with the loaded catalog and falls back to
// the whole catalog when nothing matches.
var preferredStrategies = map[objectiveCategory][]string{
	categoryResearch:  {"deep_dive_content", "value_demonstration", "social_proof"},
	categoryCreative:  {"curiosity_hook", "interactive_demo", "community_invite"},
	categoryTechnical: {"interactive_demo", "value_demonstration", "deep_dive_content"},
	categoryDefault:   {"personalized_outreach", "social_proof", "curiosity_hook"},
}

// classifyObjective resolves a free-text objective to a category by
// case-insensitive substring match.
func classifyObjective(objective string) objectiveCategory {
	lowered := strings.ToLower(objective)
	for _, entry := range categoryKeywords {
		for _, word := range entry.words {
			if strings.Contains(lowered, word) {
				return entry.category
			}
		}
	}
	return categoryDefault
}

// Request describes one search run.
type Request struct {
	// Objective is free text matched against the context categories.
	Objective string

	// InitialStage is the funnel stage the search starts from. The zero
	// value is the lowest stage.
	InitialStage funnel.Stage

	// Budget bounds the run. A zero budget on either axis yields an
	// immediate no_data result.
	Budget Budget

	// Seed feeds the run RNG. Zero selects the engine's configured
	// default so unseeded calls stay reproducible.
	Seed uint64
}

// Engine runs single-threaded MCTS over strategy combos.
//
// An engine is cheap to construct and holds no per-run state: the tree,
// tracker, and RNG live inside one Optimize call. Distinct engines share
// nothing and may run concurrently without locking.
type Engine struct {
	catalog *catalog.Catalog
	config  Config
	policy  *UCB1Policy
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// Option configures an Engine during construction.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracer attaches an OpenTelemetry tracer for per-run spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// New creates an engine over the given catalog.
//
// Inputs:
//   - cat: Strategy catalog; nil selects the built-in defaults.
//   - config: Algorithm configuration; validated here.
//   - opts: Optional configuration functions.
//
// Outputs:
//   - *Engine: Ready-to-use engine.
//   - error: Non-nil if the configuration is invalid.
func New(cat *catalog.Catalog, config Config, opts ...Option) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if cat == nil {
		cat = catalog.Default()
	}

	e := &Engine{
		catalog: cat,
		config:  config,
		policy:  NewUCB1Policy(config.ExplorationConstant, config.AmplificationWeight),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Optimize runs one search and returns the recommended result.
//
// The run is deterministic given identical catalog, objective, initial
// stage, budget, and seed. No I/O happens inside the loop; the only
// cancellation point is the per-iteration time budget check.
func (e *Engine) Optimize(ctx context.Context, req Request) (*Result, error) {
	result, _, err := e.OptimizeTree(ctx, req)
	return result, err
}

// OptimizeTree is Optimize but also returns the search tree, for
// inspection and rendering. The tree is owned by the caller afterwards
// and is never reused by the engine.
func (e *Engine) OptimizeTree(ctx context.Context, req Request) (*Result, *Tree, error) {
	// Fail fast on out-of-range stages, before any tree allocation.
	if err := funnel.Validate(req.InitialStage); err != nil {
		return nil, nil, err
	}

	seed := req.Seed
	if seed == 0 {
		seed = e.config.Seed
	}
	category := classifyObjective(req.Objective)

	if e.tracer != nil {
		var span trace.Span
		ctx, span = e.tracer.Start(ctx, "optimizer.search",
			trace.WithAttributes(
				attribute.String("objective.category", category.String()),
				attribute.String("initial_stage", req.InitialStage.String()),
				attribute.Int64("budget.max_iterations", int64(req.Budget.MaxIterations)),
				attribute.Int64("seed", int64(seed)),
			))
		defer span.End()
	}

	result := &Result{
		RunID:          uuid.NewString(),
		Objective:      req.Objective,
		Classification: ClassNoData,
	}

	if req.Budget.Zero() {
		e.record(result, 0)
		return result, NewTree(req.InitialStage), nil
	}

	rng := rand.New(rand.NewSource(int64(seed)))
	tree := NewTree(req.InitialStage)
	candidates := e.candidateStrategies(category)

	tracker := NewTracker(req.Budget)
	for {
		if _, done := tracker.Exhausted(); done {
			break
		}
		e.runIteration(tree, candidates, rng)
		tracker.RecordIteration()
	}

	e.extract(tree, result)
	result.Iterations = tracker.Iterations()
	result.Elapsed = tracker.Elapsed()

	limit, _ := tracker.Exhausted()
	e.logger.Info("search complete",
		slog.String("run_id", result.RunID),
		slog.String("category", category.String()),
		slog.Uint64("iterations", result.Iterations),
		slog.Int("nodes", tree.Len()),
		slog.Float64("expected_score", result.ExpectedScore),
		slog.String("classification", string(result.Classification)),
		slog.String("exhausted_by", limit))

	e.record(result, tree.Len())
	return result, tree, nil
}

// candidateStrategies intersects the category's preferred ids with the
// catalog, preserving the preferred order. An empty intersection falls
// back to the full catalog.
func (e *Engine) candidateStrategies(category objectiveCategory) []string {
	var candidates []string
	for _, id := range preferredStrategies[category] {
		if e.catalog.Has(id) {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		candidates = e.catalog.IDs()
	}
	return candidates
}

// runIteration performs one Selection → Expansion → Simulation →
// Backpropagation cycle. Each cycle is self-contained: it either fully
// completes or has not started, so the tree can never be observed in an
// inconsistent state between iterations.
func (e *Engine) runIteration(tree *Tree, candidates []string, rng *rand.Rand) {
	// 1. SELECT: walk to a leaf by UCB1.
	selected := tree.Root()
	for !tree.Node(selected).IsLeaf() {
		selected = e.policy.SelectChild(tree, selected)
	}

	// 2. EXPAND: visited, non-terminal leaves grow one child, which
	// becomes the simulation target.
	node := tree.Node(selected)
	if node.Visits >= 1 && !node.Stage.IsTerminal() {
		if child := e.expand(tree, selected, candidates, rng); child != NoNode {
			selected = child
		}
	}

	// 3. SIMULATE.
	score := e.simulate(tree.Node(selected), rng)

	// 4. BACKPROPAGATE: selected node up to the root.
	for id := selected; id != NoNode; id = tree.Node(id).Parent {
		n := tree.Node(id)
		n.Visits++
		n.ValueSum += score * n.Amplification
	}
}

// expand creates one child of id from the candidate strategies.
func (e *Engine) expand(tree *Tree, id NodeID, candidates []string, rng *rand.Rand) NodeID {
	combo := e.buildCombo(candidates, rng)
	if len(combo) == 0 {
		return NoNode
	}

	amp := e.amplification(combo)
	stage := funnel.Advance(tree.Node(id).Stage, amp)
	return tree.AddChild(id, stage, combo, amp)
}

// buildCombo draws the base combo from the candidates and, with
// probability ExplorationBias, appends one extra random catalog
// strategy.
func (e *Engine) buildCombo(candidates []string, rng *rand.Rand) []string {
	n := e.config.BaseComboSize
	if n > len(candidates) {
		n = len(candidates)
	}

	perm := rng.Perm(len(candidates))
	combo := make([]string, 0, n+1)
	for _, idx := range perm[:n] {
		combo = append(combo, candidates[idx])
	}

	if rng.Float64() < e.config.ExplorationBias {
		ids := e.catalog.IDs()
		extra := ids[rng.Intn(len(ids))]
		if !slices.Contains(combo, extra) {
			combo = append(combo, extra)
		}
	}
	return combo
}

// amplification derives a node's multiplier from its combo: a baseline
// of 1 + mean effectiveness, boosted when the top-tier strategy is
// present and again for wide combos.
func (e *Engine) amplification(combo []string) float64 {
	amp := 1.0 + e.catalog.MeanEffectiveness(combo)
	if slices.Contains(combo, e.config.TopTierStrategy) {
		amp *= e.config.TopTierBonus
	}
	if len(combo) >= 3 {
		amp *= e.config.ComboBonus
	}
	return amp
}

// simulate scores a node: mean combo effectiveness plus the fixed bias,
// scaled by amplification and a uniform variance draw, clamped to
// [0, ScoreCeiling]. The ceiling sits above 1.0 on purpose; see Config.
func (e *Engine) simulate(node *Node, rng *rand.Rand) float64 {
	mean := e.catalog.MeanEffectiveness(node.Combo)
	variance := e.config.VarianceMin + rng.Float64()*(e.config.VarianceMax-e.config.VarianceMin)

	score := (mean + e.config.FixedBias) * node.Amplification * variance
	if score < 0 {
		score = 0
	}
	if score > e.config.ScoreCeiling {
		score = e.config.ScoreCeiling
	}
	return score
}

// extract derives the recommendation from the root's children: highest
// mean value wins, first-encountered child wins ties.
func (e *Engine) extract(tree *Tree, result *Result) {
	root := tree.Node(tree.Root())
	if len(root.Children) == 0 {
		result.Classification = ClassNoData
		return
	}

	best := root.Children[0]
	bestMean := tree.Node(best).MeanValue()
	for _, childID := range root.Children[1:] {
		if mean := tree.Node(childID).MeanValue(); mean > bestMean {
			best = childID
			bestMean = mean
		}
	}

	node := tree.Node(best)
	result.Combo = slices.Clone(node.Combo)
	result.ExpectedScore = bestMean

	confidence := bestMean * node.Amplification
	if confidence > 1.0 {
		confidence = 1.0
	}
	result.Confidence = confidence
	result.Classification = classify(node.Combo, e.config.TopTierStrategy)
}

// record feeds run metrics, if attached.
func (e *Engine) record(result *Result, nodes int) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordSearch(result, nodes)
}
