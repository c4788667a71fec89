// Copyright (C) 2025 Cadence Labs (oss@cadencelabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/CadenceLabs/CadenceCore/services/optimizer/catalog"
	"github.com/CadenceLabs/CadenceCore/services/optimizer/history"
	"github.com/CadenceLabs/CadenceCore/services/optimizer/mcts"
	"github.com/CadenceLabs/CadenceCore/services/optimizer/server"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	serveAddr        string // Listen address
	serveCatalogPath string // Strategy catalog file
	serveConfigPath  string // Search tuning config file
	serveHistoryDir  string // Directory for the run archive (empty disables)
	serveWatch       bool   // Hot-reload the catalog on file changes
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the optimizer as an HTTP service",
	Long: `Starts an HTTP server exposing the optimizer.

Endpoints:
  POST /v1/optimize          Run a search
  GET  /v1/history           List archived runs (requires --history-dir)
  GET  /v1/history/{runId}   Fetch one archived run
  GET  /health               Liveness check
  GET  /metrics              Prometheus metrics

Examples:
  cadence serve --addr :8080
  cadence serve --catalog strategies.yaml --watch
  cadence serve --history-dir ~/.cadence/history`,
	RunE: runServeCommand,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080",
		"Listen address")
	serveCmd.Flags().StringVar(&serveCatalogPath, "catalog", "",
		"Strategy catalog file (yaml or json); defaults to the built-in catalog")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "",
		"Search tuning config file (yaml or json)")
	serveCmd.Flags().StringVar(&serveHistoryDir, "history-dir", "",
		"Archive completed runs to a history store at this directory")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false,
		"Reload the catalog when the file changes (requires --catalog)")

	rootCmd.AddCommand(serveCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runServeCommand(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engineConfig := mcts.DefaultConfig()
	if serveConfigPath != "" {
		loaded, err := mcts.LoadConfig(serveConfigPath)
		if err != nil {
			return err
		}
		engineConfig = loaded
	}

	var cat *catalog.Catalog
	if serveCatalogPath != "" {
		cat = catalog.Load(serveCatalogPath, logger.Slog())
	}

	var store *history.Store
	if serveHistoryDir != "" {
		opened, err := history.Open(history.Config{Path: serveHistoryDir, Logger: logger.Slog()})
		if err != nil {
			return err
		}
		store = opened
		defer store.Close()
	}

	registry := prometheus.NewRegistry()
	metrics := mcts.NewMetrics(registry)

	srv, err := server.New(server.Config{
		Catalog:  cat,
		Engine:   engineConfig,
		History:  store,
		Logger:   logger.Slog(),
		Metrics:  metrics,
		Registry: registry,
	})
	if err != nil {
		return err
	}

	if serveWatch {
		if serveCatalogPath == "" {
			return errors.New("--watch requires --catalog")
		}
		watcher, err := catalog.NewWatcher(serveCatalogPath, 500*time.Millisecond,
			logger.Slog(), srv.SwapCatalog)
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer watcher.Close()
	}

	httpServer := &http.Server{
		Addr:              serveAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", serveAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
