// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// The cadence command drives the engagement strategy optimizer from
// the terminal: one-shot searches, a long-running HTTP service, seed
// comparisons, and the run archive.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/CadenceLabs/CadenceCore/pkg/logging"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

var (
	rootLogLevel string // Minimum log level (debug, info, warn, error)
	rootLogDir   string // Directory for log files (empty disables)
	rootQuiet    bool   // Suppress console logging
)

// logger is the process-wide logger, initialized before any command runs.
var logger *logging.Logger

// =============================================================================
// ROOT COMMAND
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "cadence",
	Short: "Engagement strategy optimizer",
	Long: `Cadence searches for the strategy combination most likely to move
a subject through the engagement funnel, using Monte Carlo tree search
over a configurable strategy catalog.

Examples:
  cadence optimize --objective "research outreach" --iterations 1000
  cadence serve --addr :8080 --catalog strategies.yaml --watch
  cadence history list
  cadence compare --objective "default" --seeds 1,2,3`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "info",
		"Minimum log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&rootLogDir, "log-dir", "",
		"Write JSON logs to this directory in addition to the console")
	rootCmd.PersistentFlags().BoolVar(&rootQuiet, "quiet", false,
		"Suppress console logging")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logger = logging.New(logging.Config{
			Level:   parseLogLevel(rootLogLevel),
			LogDir:  rootLogDir,
			Service: "cli",
			Quiet:   rootQuiet,
		})
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Close()
		}
	}
}

// parseLogLevel maps a flag value to a logging.Level. Unknown values
// fall back to Info.
func parseLogLevel(s string) logging.Level {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}
