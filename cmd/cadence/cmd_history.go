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
	"github.com/CadenceLabs/CadenceCore/services/optimizer/history"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	historyDir        string // History store directory
	historyLimit      int    // Maximum runs to list
	historyJSONOutput bool   // Output as JSON
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect archived optimizer runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, most recent first",
	RunE:  runHistoryListCommand,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one archived run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShowCommand,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	historyCmd.PersistentFlags().StringVar(&historyDir, "dir", defaultHistoryDir(),
		"History store directory")
	historyCmd.PersistentFlags().BoolVar(&historyJSONOutput, "json", false,
		"Output as JSON for scripting")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20,
		"Maximum runs to list (0 for all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func defaultHistoryDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.cadence/history"
	}
	return ".cadence/history"
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func openHistory() (*history.Store, error) {
	return history.Open(history.Config{Path: historyDir, Logger: logger.Slog()})
}

func runHistoryListCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(historyLimit)
	if err != nil {
		return err
	}

	if historyJSONOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}

	if len(records) == 0 {
		ux.Muted("no archived runs")
		return nil
	}

	ux.Title(fmt.Sprintf("Archived runs (%d)", len(records)))
	for _, record := range records {
		result := record.Result
		fmt.Printf("%s %s  %s  %s  score %.2f\n",
			ux.IconBullet.Render(),
			record.SavedAt.Local().Format("2006-01-02 15:04:05"),
			result.RunID,
			strings.Join(result.Combo, "+"),
			result.ExpectedScore)
	}
	return nil
}

func runHistoryShowCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	record, err := store.Get(args[0])
	if err != nil {
		return err
	}

	if historyJSONOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(record)
	}

	renderResult(&record.Result)
	ux.Muted("saved " + record.SavedAt.Local().Format(time.RFC1123))
	return nil
}
