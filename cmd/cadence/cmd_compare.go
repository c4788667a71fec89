// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/CadenceLabs/CadenceCore/pkg/ux"
	"github.com/CadenceLabs/CadenceCore/services/optimizer/funnel"
	"github.com/CadenceLabs/CadenceCore/services/optimizer/mcts"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	compareObjective    string
	compareCatalogPath  string
	compareConfigPath   string
	compareInitialStage string
	compareIterations   uint64
	compareTimeLimit    time.Duration
	compareSeeds        []uint
	compareJSONOutput   bool
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run the same search under multiple seeds",
	Long: `Runs independent searches for the same objective under different
seeds and compares the recommendations. Each seed gets its own engine,
so the runs proceed concurrently without sharing search state.

Examples:
  cadence compare --objective "default" --seeds 1,2,3
  cadence compare --objective "research push" --seeds 7,42 --iterations 5000`,
	RunE: runCompareCommand,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	compareCmd.Flags().StringVarP(&compareObjective, "objective", "o", "",
		"Campaign objective (required)")
	compareCmd.Flags().StringVar(&compareCatalogPath, "catalog", "",
		"Strategy catalog file (yaml or json); defaults to the built-in catalog")
	compareCmd.Flags().StringVar(&compareConfigPath, "config", "",
		"Search tuning config file (yaml or json)")
	compareCmd.Flags().StringVar(&compareInitialStage, "initial-stage", "initial",
		"Funnel stage the subject starts in")
	compareCmd.Flags().Uint64VarP(&compareIterations, "iterations", "n", 1000,
		"Maximum search iterations per seed")
	compareCmd.Flags().DurationVar(&compareTimeLimit, "time-limit", 30*time.Second,
		"Maximum wall-clock time per seed")
	compareCmd.Flags().UintSliceVar(&compareSeeds, "seeds", []uint{1, 2, 3},
		"Seeds to compare")
	compareCmd.Flags().BoolVar(&compareJSONOutput, "json", false,
		"Output as JSON for scripting")
	_ = compareCmd.MarkFlagRequired("objective")

	rootCmd.AddCommand(compareCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runCompareCommand(cmd *cobra.Command, args []string) error {
	if len(compareSeeds) == 0 {
		return fmt.Errorf("at least one seed required")
	}

	stage, err := funnel.ParseStage(compareInitialStage)
	if err != nil {
		return err
	}

	results := make([]*mcts.Result, len(compareSeeds))
	group, ctx := errgroup.WithContext(cmd.Context())
	for i, seed := range compareSeeds {
		group.Go(func() error {
			engine, err := buildEngine(compareCatalogPath, compareConfigPath)
			if err != nil {
				return err
			}
			result, err := engine.Optimize(ctx, mcts.Request{
				Objective:    compareObjective,
				InitialStage: stage,
				Budget: mcts.Budget{
					MaxIterations: compareIterations,
					TimeLimit:     compareTimeLimit,
				},
				Seed: uint64(seed),
			})
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	if compareJSONOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}

	renderComparison(compareSeeds, results)
	return nil
}

// renderComparison prints one line per seed plus a consensus summary.
func renderComparison(seeds []uint, results []*mcts.Result) {
	ux.Title("Seed comparison")

	comboVotes := make(map[string]int)
	for i, result := range results {
		combo := strings.Join(result.Combo, "+")
		comboVotes[combo]++
		fmt.Printf("%s seed %-6d %-40s score %.2f  (%d iters, %s)\n",
			ux.IconBullet.Render(), seeds[i], combo,
			result.ExpectedScore, result.Iterations,
			result.Elapsed.Round(time.Millisecond))
	}

	combos := make([]string, 0, len(comboVotes))
	for combo := range comboVotes {
		combos = append(combos, combo)
	}
	sort.Slice(combos, func(i, j int) bool {
		if comboVotes[combos[i]] != comboVotes[combos[j]] {
			return comboVotes[combos[i]] > comboVotes[combos[j]]
		}
		return combos[i] < combos[j]
	})

	fmt.Println()
	if len(combos) == 1 {
		ux.Success(fmt.Sprintf("all %d seeds agree on %s", len(results), combos[0]))
		return
	}
	ux.Warning(fmt.Sprintf("%d distinct recommendations across %d seeds", len(combos), len(results)))
	fmt.Println(ux.KeyValue("Most common", fmt.Sprintf("%s (%d/%d)", combos[0], comboVotes[combos[0]], len(results))))
}
