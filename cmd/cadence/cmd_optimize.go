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
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/CadenceLabs/CadenceCore/pkg/ux"
	"github.com/CadenceLabs/CadenceCore/services/optimizer/catalog"
	"github.com/CadenceLabs/CadenceCore/services/optimizer/funnel"
	"github.com/CadenceLabs/CadenceCore/services/optimizer/history"
	"github.com/CadenceLabs/CadenceCore/services/optimizer/mcts"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	optimizeObjective    string // Campaign objective text
	optimizeCatalogPath  string // Strategy catalog file (yaml or json)
	optimizeConfigPath   string // Search tuning config file
	optimizeInitialStage string // Funnel stage the subject starts in
	optimizeIterations   uint64 // Iteration budget
	optimizeTimeLimit    time.Duration
	optimizeSeed         uint64 // RNG seed (0 uses the configured default)
	optimizeJSONOutput   bool   // Output as JSON
	optimizeShowTree     bool   // Print the search tree after the run
	optimizeHistoryDir   string // Archive the result to this history store
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run a single strategy search",
	Long: `Runs a Monte Carlo tree search for the strategy combination best
suited to the given objective and prints the recommendation.

Examples:
  cadence optimize --objective "technical deep dive"
  cadence optimize --objective "research outreach" --iterations 5000 --seed 7
  cadence optimize --objective "default" --catalog strategies.yaml --json
  cadence optimize --objective "creative launch" --show-tree`,
	RunE: runOptimizeCommand,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	optimizeCmd.Flags().StringVarP(&optimizeObjective, "objective", "o", "",
		"Campaign objective (required)")
	optimizeCmd.Flags().StringVar(&optimizeCatalogPath, "catalog", "",
		"Strategy catalog file (yaml or json); defaults to the built-in catalog")
	optimizeCmd.Flags().StringVar(&optimizeConfigPath, "config", "",
		"Search tuning config file (yaml or json)")
	optimizeCmd.Flags().StringVar(&optimizeInitialStage, "initial-stage", "initial",
		"Funnel stage the subject starts in")
	optimizeCmd.Flags().Uint64VarP(&optimizeIterations, "iterations", "n", 1000,
		"Maximum search iterations")
	optimizeCmd.Flags().DurationVar(&optimizeTimeLimit, "time-limit", 30*time.Second,
		"Maximum wall-clock search time")
	optimizeCmd.Flags().Uint64Var(&optimizeSeed, "seed", 0,
		"RNG seed; 0 uses the configured default")
	optimizeCmd.Flags().BoolVar(&optimizeJSONOutput, "json", false,
		"Output as JSON for scripting")
	optimizeCmd.Flags().BoolVar(&optimizeShowTree, "show-tree", false,
		"Print the explored search tree")
	optimizeCmd.Flags().StringVar(&optimizeHistoryDir, "save", "",
		"Archive the result to a history store at this directory")
	_ = optimizeCmd.MarkFlagRequired("objective")

	rootCmd.AddCommand(optimizeCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runOptimizeCommand(cmd *cobra.Command, args []string) error {
	engine, err := buildEngine(optimizeCatalogPath, optimizeConfigPath)
	if err != nil {
		return err
	}

	stage, err := funnel.ParseStage(optimizeInitialStage)
	if err != nil {
		return err
	}

	req := mcts.Request{
		Objective:    optimizeObjective,
		InitialStage: stage,
		Budget: mcts.Budget{
			MaxIterations: optimizeIterations,
			TimeLimit:     optimizeTimeLimit,
		},
		Seed: optimizeSeed,
	}

	result, tree, err := engine.OptimizeTree(cmd.Context(), req)
	if err != nil {
		return err
	}

	if optimizeJSONOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return err
		}
	} else {
		renderResult(result)
		if optimizeShowTree {
			fmt.Println()
			fmt.Print(tree.Format())
		}
	}

	if optimizeHistoryDir != "" {
		if err := archiveResult(optimizeHistoryDir, result); err != nil {
			return err
		}
		if !optimizeJSONOutput {
			ux.Success(fmt.Sprintf("archived run %s", result.RunID))
		}
	}
	return nil
}

// buildEngine assembles an engine from the catalog and config flags.
// A missing catalog flag selects the built-in catalog; a malformed
// catalog file logs a warning and also falls back.
func buildEngine(catalogPath, configPath string) (*mcts.Engine, error) {
	config := mcts.DefaultConfig()
	if configPath != "" {
		loaded, err := mcts.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	var cat *catalog.Catalog
	if catalogPath != "" {
		cat = catalog.Load(catalogPath, logger.Slog())
	}

	return mcts.New(cat, config, mcts.WithLogger(logger.Slog()))
}

// archiveResult saves a result to a persistent history store.
func archiveResult(dir string, result *mcts.Result) error {
	store, err := history.Open(history.Config{Path: dir, Logger: logger.Slog()})
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.Save(result)
	return err
}

// renderResult prints a styled result summary.
func renderResult(result *mcts.Result) {
	ux.Title("Recommendation")
	fmt.Println(ux.KeyValue("Objective", result.Objective))
	fmt.Println(ux.KeyValue("Combo", strings.Join(result.Combo, " + ")))
	fmt.Println(ux.KeyValue("Classification", string(result.Classification)))
	fmt.Println(ux.KeyValue("Expected score", ux.ScoreBar(result.ExpectedScore, 20)))
	fmt.Println(ux.KeyValue("Confidence", ux.ScoreBar(result.Confidence, 20)))
	fmt.Println(ux.KeyValue("Iterations", fmt.Sprintf("%d", result.Iterations)))
	fmt.Println(ux.KeyValue("Elapsed", result.Elapsed.Round(time.Microsecond).String()))
	ux.Muted("run " + result.RunID)
}
